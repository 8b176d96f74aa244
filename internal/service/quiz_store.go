package service

import (
	"context"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"time"
)

// AttemptStore 测验持久化，由 repository.QuizRepository 实现
type AttemptStore interface {
	FindAttempt(ctx context.Context, id string) (*model.QuizAttempt, error)
	FindOpenAttempt(ctx context.Context, userID, educationID string) (*model.QuizAttempt, error)
	CountAttempts(ctx context.Context, userID, educationID string) (int64, error)
	CreateAttemptWithQuestions(ctx context.Context, attempt *model.QuizAttempt, questions []model.QuizQuestion) error
	ListQuestions(ctx context.Context, attemptID string) ([]model.QuizQuestion, error)
	SaveDraftAnswers(ctx context.Context, attemptID string, selections map[string]*int) error
	SubmitAttempt(ctx context.Context, attemptID string, upd repository.SubmitUpdate) error
	RecordLeave(ctx context.Context, attemptID string, at time.Time, seconds int) (*model.QuizLeaveTracking, error)
	FindLeave(ctx context.Context, attemptID string) (*model.QuizLeaveTracking, error)
	ListSubmittedAttempts(ctx context.Context, filter repository.AttemptFilter) ([]model.QuizAttempt, error)
	SubmittedStems(ctx context.Context, userID, educationID string) ([]string, error)
}

var _ AttemptStore = (*repository.QuizRepository)(nil)
