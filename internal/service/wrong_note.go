package service

import "edu_quiz_backend/internal/model"

// WrongNote 错题本条目
type WrongNote struct {
	Question           string   `json:"question"`
	Choices            []string `json:"choices"`
	UserAnswerIndex    *int     `json:"userAnswerIndex"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	QuestionOrder      int      `json:"questionOrder"`
}

// BuildWrongNotes 按题目顺序列出答错（含未作答）的题目
func BuildWrongNotes(questions []model.QuizQuestion) []WrongNote {
	notes := make([]WrongNote, 0)
	for i := range questions {
		q := &questions[i]
		if q.IsCorrect() {
			continue
		}
		notes = append(notes, WrongNote{
			Question:           q.Stem,
			Choices:            []string(q.Options),
			UserAnswerIndex:    q.UserSelectedOptionIdx,
			CorrectAnswerIndex: q.CorrectOptionIdx,
			Explanation:        q.Explanation,
			QuestionOrder:      q.QuestionOrder,
		})
	}
	return notes
}
