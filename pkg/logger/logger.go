package logger

import (
	"edu_quiz_backend/internal/config"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 之前为 no-op，测试中无需初始化
var Log = zap.NewNop()

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// levelFor 显式配置优先，否则跟随 server.mode
func levelFor(cfg *config.Config) (zapcore.Level, error) {
	if cfg.Log.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("log.level: %w", err)
		}
		return lvl, nil
	}
	if cfg.Server.Mode == "debug" {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

// New 控制台输出，配置了 log.file 时另写一份按大小轮转的 JSON 日志
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := levelFor(cfg)
	if err != nil {
		return nil, err
	}

	enc := encoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), level),
	}
	if cfg.Log.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(rotating), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).Named("quiz"), nil
}

// InitLogger 替换全局 Log；配置有误时退回 info 级别并提示
func InitLogger(cfg *config.Config) {
	l, err := New(cfg)
	if err != nil {
		fallback := *cfg
		fallback.Log.Level = ""
		l, _ = New(&fallback)
		l.Warn("Invalid log config, using defaults", zap.Error(err))
	}
	Log = l
}
