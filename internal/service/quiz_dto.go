package service

import "time"

// Caller 调用方身份（来自 JWT 或网关头）
type Caller struct {
	UserID     string
	Department string
}

type AnswerItem struct {
	QuestionID        string `json:"questionId" binding:"required"`
	UserSelectedIndex *int   `json:"userSelectedIndex"`
}

type SubmitReq struct {
	Answers []AnswerItem `json:"answers"`
}

type SaveReq struct {
	Answers []AnswerItem `json:"answers"`
}

type LeaveReq struct {
	Timestamp    time.Time `json:"timestamp"`
	Reason       string    `json:"reason"`
	LeaveSeconds *int      `json:"leaveSeconds"`
}

// QuestionItem 作答中的题目，不包含正确答案
type QuestionItem struct {
	QuestionID        string   `json:"questionId"`
	Order             int      `json:"order"`
	Question          string   `json:"question"`
	Choices           []string `json:"choices"`
	UserSelectedIndex *int     `json:"userSelectedIndex,omitempty"`
}

type StartResp struct {
	AttemptID string         `json:"attemptId"`
	AttemptNo int            `json:"attemptNo"`
	TimeLimit *int           `json:"timeLimit,omitempty"`
	Resumed   bool           `json:"resumed"`
	Questions []QuestionItem `json:"questions"`
}

type SubmitResp struct {
	Score        int       `json:"score"`
	Passed       bool      `json:"passed"`
	CorrectCount int       `json:"correctCount"`
	WrongCount   int       `json:"wrongCount"`
	TotalCount   int       `json:"totalCount"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type ResultResp struct {
	Score        int       `json:"score"`
	Passed       bool      `json:"passed"`
	CorrectCount int       `json:"correctCount"`
	WrongCount   int       `json:"wrongCount"`
	TotalCount   int       `json:"totalCount"`
	FinishedAt   time.Time `json:"finishedAt"`
}

type SaveResp struct {
	Saved      bool      `json:"saved"`
	SavedCount int       `json:"savedCount"`
	SavedAt    time.Time `json:"savedAt"`
}

type LeaveResp struct {
	Recorded          bool      `json:"recorded"`
	LeaveCount        int       `json:"leaveCount"`
	TotalLeaveSeconds int       `json:"totalLeaveSeconds"`
	LastLeaveAt       time.Time `json:"lastLeaveAt"`
}

type TimerResp struct {
	AttemptID        string     `json:"attemptId"`
	TimeLimit        *int       `json:"timeLimit"`
	StartedAt        time.Time  `json:"startedAt"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	RemainingSeconds *int       `json:"remainingSeconds"`
	IsExpired        bool       `json:"isExpired"`
}

type MyAttemptItem struct {
	AttemptID   string    `json:"attemptId"`
	EducationID string    `json:"educationId"`
	AttemptNo   int       `json:"attemptNo"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
	IsBestScore bool      `json:"isBestScore"`
}

type RetryInfoResp struct {
	EducationID       string     `json:"educationId"`
	AttemptCount      int        `json:"attemptCount"`
	MaxAttempts       int        `json:"maxAttempts"` // 0 表示不限
	RemainingAttempts *int       `json:"remainingAttempts"`
	CanRetry          bool       `json:"canRetry"`
	BestScore         *int       `json:"bestScore"`
	Passed            bool       `json:"passed"`
	LastSubmittedAt   *time.Time `json:"lastSubmittedAt"`
}

type DepartmentStat struct {
	Department       string  `json:"department"`
	ParticipantCount int     `json:"participantCount"`
	AverageScore     float64 `json:"averageScore"`
	PassCount        int     `json:"passCount"`
	PassRate         float64 `json:"passRate"`
}
