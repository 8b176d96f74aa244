package service

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"
	"math"
	"sync/atomic"
)

// GradeResult 评分结果
type GradeResult struct {
	Score        int
	Passed       bool
	CorrectCount int
	WrongCount   int
	TotalCount   int
}

// Grader 按正确率计分，及格线可热更新
type Grader struct {
	passScore atomic.Int32
}

func NewGrader(passScore int) *Grader {
	g := &Grader{}
	g.SetPassScore(passScore)
	return g
}

func (g *Grader) SetPassScore(score int) {
	g.passScore.Store(int32(score))
}

func (g *Grader) PassScore() int {
	return int(g.passScore.Load())
}

// Grade 未作答或越界的选择都计为错误
func (g *Grader) Grade(questions []model.QuizQuestion) (GradeResult, error) {
	total := len(questions)
	if total == 0 {
		return GradeResult{}, util.ErrNoQuestions
	}

	correct := 0
	for i := range questions {
		if questions[i].IsCorrect() {
			correct++
		}
	}

	score := Score(correct, total)
	return GradeResult{
		Score:        score,
		Passed:       score >= g.PassScore(),
		CorrectCount: correct,
		WrongCount:   total - correct,
		TotalCount:   total,
	}, nil
}

// Score 100*correct/total 四舍五入（远离零）
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
