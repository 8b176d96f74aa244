package service

import (
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() AttemptSnapshot {
	score, passed := 67, false
	submitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &model.QuizAttempt{
		UserID:      "user-1",
		EducationID: "edu-1",
		AttemptNo:   1,
		SubmittedAt: &submitted,
		Score:       &score,
		Passed:      &passed,
	}
	a.ID = "attempt-1"
	qs := []model.QuizQuestion{
		{Stem: "q1", Options: model.Choices{"a", "b"}, CorrectOptionIdx: 1, UserSelectedOptionIdx: intPtr(0), QuestionOrder: 0},
	}
	leave := &model.QuizLeaveTracking{AttemptID: "attempt-1", LeaveCount: 2}
	return NewAttemptSnapshot(a, qs, leave, submitted)
}

func TestArchiveToLocalStorage(t *testing.T) {
	root := t.TempDir()
	provider, err := NewStorageProvider(&config.StorageConfig{Type: util.StorageLocal, LocalPath: root})
	require.NoError(t, err)

	svc := NewArchiveService(provider)
	require.NoError(t, svc.Archive(context.Background(), sampleSnapshot()))

	data, err := os.ReadFile(filepath.Join(root, "quiz-attempts", "edu-1", "attempt-1.json"))
	require.NoError(t, err)

	var got AttemptSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "attempt-1", got.Attempt.ID)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, 1, got.Questions[0].CorrectOptionIdx)
	assert.Equal(t, 0, *got.Questions[0].UserSelectedOptionIdx)
	assert.Equal(t, 2, got.Leave.LeaveCount)
}

type failingProvider struct{}

func (failingProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	return "", errors.New("disk full")
}

func (failingProvider) GetURL(key string) string { return key }

func TestArchiveProviderError(t *testing.T) {
	err := NewArchiveService(failingProvider{}).Archive(context.Background(), sampleSnapshot())
	assert.EqualError(t, err, "disk full")
}

func TestNewStorageProvider(t *testing.T) {
	p, err := NewStorageProvider(&config.StorageConfig{Type: util.StorageNone})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewStorageProvider(&config.StorageConfig{
		Type:          util.StorageMinio,
		MinioEndpoint: "localhost:9000",
		MinioAccessID: "minio",
		MinioSecret:   "minio123",
		MinioBucket:   "quiz",
	})
	require.NoError(t, err)
	assert.Equal(t, "/quiz/quiz-attempts/e/a.json", p.GetURL(ArchiveKey("e", "a")))

	_, err = NewStorageProvider(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
