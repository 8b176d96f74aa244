package logger

import (
	"edu_quiz_backend/internal/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		mode, level string
		want        zapcore.Level
		wantErr     bool
	}{
		{mode: "debug", want: zapcore.DebugLevel},
		{mode: "release", want: zapcore.InfoLevel},
		{mode: "debug", level: "warn", want: zapcore.WarnLevel},
		{mode: "release", level: "loud", wantErr: true},
	}
	for _, tc := range cases {
		cfg := &config.Config{Server: config.ServerConfig{Mode: tc.mode}, Log: config.LogConfig{Level: tc.level}}
		got, err := levelFor(cfg)
		if tc.wantErr {
			assert.Error(t, err, tc.level)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s/%s", tc.mode, tc.level)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quiz.log")
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Log:    config.LogConfig{File: file, MaxSizeMB: 1},
	}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("attempt submitted", zap.String("attempt_id", "a-1"))
	_ = l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"attempt submitted"`)
	assert.Contains(t, string(data), `"attempt_id":"a-1"`)
	assert.Contains(t, string(data), `"logger":"quiz"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInitLoggerFallsBackOnBadLevel(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop() })

	InitLogger(&config.Config{Log: config.LogConfig{Level: "loud"}})
	assert.NotNil(t, Log)
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
}
