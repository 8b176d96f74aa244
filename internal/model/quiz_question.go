package model

// swagger:model QuizQuestion
type QuizQuestion struct {
	UUIDBase
	AttemptID             string  `gorm:"uniqueIndex:idx_quiz_question_order;type:varchar(36);not null" json:"attemptId"`
	Stem                  string  `gorm:"type:text;not null" json:"question"`
	Options               Choices `gorm:"type:text" json:"choices"`
	CorrectOptionIdx      int     `gorm:"not null" json:"-"`
	Explanation           string  `gorm:"type:text" json:"-"`
	UserSelectedOptionIdx *int    `json:"userSelectedIndex,omitempty"`
	QuestionOrder         int     `gorm:"uniqueIndex:idx_quiz_question_order;not null" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// IsCorrect 未作答或下标越界均视为答错
func (q *QuizQuestion) IsCorrect() bool {
	if q.UserSelectedOptionIdx == nil {
		return false
	}
	sel := *q.UserSelectedOptionIdx
	return q.Options.Valid(sel) && sel == q.CorrectOptionIdx
}
