package service

import (
	"context"
	"strings"
)

// GenerateRequest 出题请求
type GenerateRequest struct {
	EducationID  string
	AttemptNo    int
	Language     string
	NumQuestions int
	MaxOptions   int
	ExcludeStems []string // 重考时排除已出现过的题干
}

// GeneratedQuestion 出题服务返回的单选题，CorrectIndex 已校验在选项范围内
type GeneratedQuestion struct {
	Stem         string
	Options      []string
	CorrectIndex int
	Explanation  string
}

// QuestionSource 外部出题服务
type QuestionSource interface {
	Generate(ctx context.Context, req GenerateRequest) ([]GeneratedQuestion, error)
}

// 出题服务的 wire 格式，AI 服务与 OpenAI 兼容接口共用
type wireQuestionSet struct {
	EducationID    string         `json:"educationId,omitempty"`
	AttemptNo      int            `json:"attemptNo,omitempty"`
	GeneratedCount int            `json:"generatedCount,omitempty"`
	Questions      []wireQuestion `json:"questions"`
}

type wireQuestion struct {
	QuestionType string       `json:"questionType,omitempty"`
	Stem         string       `json:"stem"`
	Options      []wireOption `json:"options"`
	Explanation  string       `json:"explanation,omitempty"`
}

type wireOption struct {
	OptionID  string `json:"optionId,omitempty"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// toGeneratedQuestions 过滤无效题目：题干为空、无选项、选项超过 maxOptions、无正确选项。
// 正确答案取第一个 isCorrect=true 的选项。limit > 0 时最多保留 limit 道。
func toGeneratedQuestions(in []wireQuestion, limit, maxOptions int) []GeneratedQuestion {
	out := make([]GeneratedQuestion, 0, len(in))
	for _, q := range in {
		stem := strings.TrimSpace(q.Stem)
		if stem == "" || len(q.Options) == 0 {
			continue
		}
		if maxOptions > 0 && len(q.Options) > maxOptions {
			continue
		}

		correct := -1
		options := make([]string, len(q.Options))
		for i, o := range q.Options {
			options[i] = o.Text
			if correct < 0 && o.IsCorrect != nil && *o.IsCorrect {
				correct = i
			}
		}
		if correct < 0 {
			continue
		}

		out = append(out, GeneratedQuestion{
			Stem:         stem,
			Options:      options,
			CorrectIndex: correct,
			Explanation:  q.Explanation,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
