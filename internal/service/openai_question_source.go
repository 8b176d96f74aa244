package service

import (
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIQuestionSource 通过 OpenAI 兼容接口出题
type OpenAIQuestionSource struct {
	client *openai.Client
	model  string
}

func NewOpenAIQuestionSource(cfg config.QuestionSourceConfig) (*OpenAIQuestionSource, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("question_source.api_key is required for openai")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIQuestionSource{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func buildQuestionPrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d single-choice quiz questions for education %s (attempt %d).\n",
		req.NumQuestions, req.EducationID, req.AttemptNo)
	fmt.Fprintf(&b, "Write them in language %q.\n", req.Language)
	if req.MaxOptions > 0 {
		fmt.Fprintf(&b, "Each question has at most %d options and exactly one option with isCorrect=true.\n", req.MaxOptions)
	}
	if len(req.ExcludeStems) > 0 {
		b.WriteString("Do not repeat any of these questions:\n")
		for _, s := range req.ExcludeStems {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *OpenAIQuestionSource) Generate(ctx context.Context, req GenerateRequest) ([]GeneratedQuestion, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write quiz questions for employee education. Reply with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildQuestionPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "quiz_question_set",
				Schema: json.RawMessage(questionSetSchema),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuestionGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", util.ErrQuestionGenerationFailed)
	}

	raw := []byte(resp.Choices[0].Message.Content)
	if err := validateQuestionSet(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuestionGenerationFailed, err)
	}

	var set wireQuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuestionGenerationFailed, err)
	}

	qs := toGeneratedQuestions(set.Questions, req.NumQuestions, req.MaxOptions)
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in response", util.ErrQuestionGenerationFailed)
	}
	return qs, nil
}

// NewQuestionSource 按配置选择出题实现
func NewQuestionSource(cfg config.QuestionSourceConfig) (QuestionSource, error) {
	switch cfg.Type {
	case "", util.QuestionSourceAIServer:
		return NewAIServerQuestionSource(cfg), nil
	case util.QuestionSourceOpenAI:
		return NewOpenAIQuestionSource(cfg)
	default:
		return nil, fmt.Errorf("unknown question_source.type %q", cfg.Type)
	}
}
