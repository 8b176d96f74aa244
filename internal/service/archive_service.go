package service

import (
	"bytes"
	"context"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/pkg/logger"
	"edu_quiz_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AttemptSnapshot 提交后归档的完整作答记录
type AttemptSnapshot struct {
	Attempt    model.QuizAttempt        `json:"attempt"`
	Questions  []ArchivedQuestion       `json:"questions"`
	Leave      *model.QuizLeaveTracking `json:"leave,omitempty"`
	ArchivedAt time.Time                `json:"archivedAt"`
}

// ArchivedQuestion 归档中包含正确答案与解析
type ArchivedQuestion struct {
	ID                    string   `json:"id"`
	Order                 int      `json:"order"`
	Stem                  string   `json:"stem"`
	Options               []string `json:"options"`
	CorrectOptionIdx      int      `json:"correctOptionIdx"`
	UserSelectedOptionIdx *int     `json:"userSelectedOptionIdx"`
	Explanation           string   `json:"explanation"`
}

// AttemptArchiver 提交后写入对象存储
type AttemptArchiver interface {
	Archive(ctx context.Context, snap AttemptSnapshot) error
}

type ArchiveService struct {
	Provider StorageProvider
}

func NewArchiveService(provider StorageProvider) *ArchiveService {
	return &ArchiveService{Provider: provider}
}

func ArchiveKey(educationID, attemptID string) string {
	return fmt.Sprintf("quiz-attempts/%s/%s.json", educationID, attemptID)
}

func NewAttemptSnapshot(a *model.QuizAttempt, qs []model.QuizQuestion, leave *model.QuizLeaveTracking, now time.Time) AttemptSnapshot {
	snap := AttemptSnapshot{
		Attempt:    *a,
		Questions:  make([]ArchivedQuestion, len(qs)),
		Leave:      leave,
		ArchivedAt: now,
	}
	for i, q := range qs {
		snap.Questions[i] = ArchivedQuestion{
			ID:                    q.ID,
			Order:                 q.QuestionOrder,
			Stem:                  q.Stem,
			Options:               []string(q.Options),
			CorrectOptionIdx:      q.CorrectOptionIdx,
			UserSelectedOptionIdx: q.UserSelectedOptionIdx,
			Explanation:           q.Explanation,
		}
	}
	return snap
}

func (s *ArchiveService) Archive(ctx context.Context, snap AttemptSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	key := ArchiveKey(snap.Attempt.EducationID, snap.Attempt.ID)
	url, err := s.Provider.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json")
	if err != nil {
		monitoring.ArchiveFailures.Inc()
		return err
	}

	logger.Log.Debug("作答已归档", zap.String("attempt_id", snap.Attempt.ID), zap.String("url", url))
	return nil
}
