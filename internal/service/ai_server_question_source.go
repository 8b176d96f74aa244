package service

import (
	"bytes"
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const questionTypeSingleChoice = "MCQ_SINGLE"

// AIServerQuestionSource 调用内部 AI 服务 POST /ai/quiz/generate
type AIServerQuestionSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAIServerQuestionSource(cfg config.QuestionSourceConfig) *AIServerQuestionSource {
	return &AIServerQuestionSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type aiGenerateRequest struct {
	EducationID  string   `json:"educationId"`
	AttemptNo    int      `json:"attemptNo"`
	Language     string   `json:"language"`
	NumQuestions int      `json:"numQuestions"`
	QuestionType string   `json:"questionType"`
	MaxOptions   int      `json:"maxOptions,omitempty"`
	ExcludeStems []string `json:"excludeStems,omitempty"`
}

func (s *AIServerQuestionSource) Generate(ctx context.Context, req GenerateRequest) ([]GeneratedQuestion, error) {
	body, err := json.Marshal(aiGenerateRequest{
		EducationID:  req.EducationID,
		AttemptNo:    req.AttemptNo,
		Language:     req.Language,
		NumQuestions: req.NumQuestions,
		QuestionType: questionTypeSingleChoice,
		MaxOptions:   req.MaxOptions,
		ExcludeStems: req.ExcludeStems,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ai/quiz/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		httpReq.Header.Set(util.HeaderInternalToken, s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuestionGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", util.ErrQuestionGenerationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: AI server status %d: %s", util.ErrQuestionGenerationFailed, resp.StatusCode, truncate(string(raw), 200))
	}

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

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
