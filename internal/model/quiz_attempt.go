package model

import (
	"time"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	UserID      string     `gorm:"index:idx_quiz_attempt_user_edu;type:varchar(36);not null" json:"userId"`
	EducationID string     `gorm:"index:idx_quiz_attempt_user_edu;type:varchar(36);not null" json:"educationId"`
	AttemptNo   int        `gorm:"not null" json:"attemptNo"`
	TimeLimit   *int       `json:"timeLimit,omitempty"` // 秒
	Department  string     `gorm:"size:100" json:"department,omitempty"`
	SubmittedAt *time.Time `gorm:"index" json:"submittedAt,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Passed      *bool      `json:"passed,omitempty"`

	// 未提交期间为 "userID:educationID"，提交后置空；唯一索引保证同一用户同一课程只有一个进行中的尝试
	OpenKey *string `gorm:"uniqueIndex;size:80" json:"-"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func OpenKeyFor(userID, educationID string) string {
	return userID + ":" + educationID
}

func (a *QuizAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

func (a *QuizAttempt) OwnedBy(userID string) bool {
	return a.UserID == userID
}

// ExpiresAt 未设置时间限制时返回 nil
func (a *QuizAttempt) ExpiresAt() *time.Time {
	if a.TimeLimit == nil {
		return nil
	}
	t := a.CreatedAt.Add(time.Duration(*a.TimeLimit) * time.Second)
	return &t
}
