package service

import (
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validQuestionSet = `{
  "educationId": "edu-1",
  "attemptNo": 1,
  "generatedCount": 3,
  "questions": [
    {
      "questionType": "MCQ_SINGLE",
      "stem": "Which port does HTTPS use?",
      "options": [
        {"optionId": "A", "text": "80", "isCorrect": false},
        {"optionId": "B", "text": "443", "isCorrect": true},
        {"optionId": "C", "text": "22"}
      ],
      "explanation": "TLS default port"
    },
    {
      "stem": "no correct option",
      "options": [{"text": "a"}, {"text": "b", "isCorrect": false}]
    },
    {
      "stem": "   ",
      "options": [{"text": "a", "isCorrect": true}]
    },
    {
      "stem": "Pick one",
      "options": [{"text": "x", "isCorrect": true}, {"text": "y", "isCorrect": true}],
      "explanation": null
    }
  ]
}`

func sourceConfig(baseURL string) config.QuestionSourceConfig {
	return config.QuestionSourceConfig{
		Type:    util.QuestionSourceAIServer,
		BaseURL: baseURL + "/",
		Token:   "secret-token",
		Timeout: 5 * time.Second,
	}
}

func TestAIServerQuestionSource(t *testing.T) {
	var got aiGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ai/quiz/generate", r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get(util.HeaderInternalToken))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(validQuestionSet))
	}))
	defer srv.Close()

	src := NewAIServerQuestionSource(sourceConfig(srv.URL))
	qs, err := src.Generate(context.Background(), GenerateRequest{
		EducationID:  "edu-1",
		AttemptNo:    2,
		Language:     "ko",
		NumQuestions: 5,
		ExcludeStems: []string{"old"},
	})
	require.NoError(t, err)

	assert.Equal(t, "edu-1", got.EducationID)
	assert.Equal(t, 2, got.AttemptNo)
	assert.Equal(t, questionTypeSingleChoice, got.QuestionType)
	assert.Equal(t, []string{"old"}, got.ExcludeStems)

	require.Len(t, qs, 2)
	assert.Equal(t, "Which port does HTTPS use?", qs[0].Stem)
	assert.Equal(t, []string{"80", "443", "22"}, qs[0].Options)
	assert.Equal(t, 1, qs[0].CorrectIndex)
	assert.Equal(t, "TLS default port", qs[0].Explanation)
	// 多个正确选项时取第一个
	assert.Equal(t, 0, qs[1].CorrectIndex)
}

func TestAIServerQuestionSourceLimitsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validQuestionSet))
	}))
	defer srv.Close()

	qs, err := NewAIServerQuestionSource(sourceConfig(srv.URL)).Generate(context.Background(), GenerateRequest{NumQuestions: 1})
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}

func TestAIServerQuestionSourceDropsTooManyOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validQuestionSet))
	}))
	defer srv.Close()
	src := NewAIServerQuestionSource(sourceConfig(srv.URL))

	qs, err := src.Generate(context.Background(), GenerateRequest{NumQuestions: 5, MaxOptions: 2})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Pick one", qs[0].Stem)

	// 所有题目都超出选项上限时视为出题失败
	_, err = src.Generate(context.Background(), GenerateRequest{NumQuestions: 5, MaxOptions: 1})
	assert.ErrorIs(t, err, util.ErrQuestionGenerationFailed)
}

func TestToGeneratedQuestionsMaxOptions(t *testing.T) {
	yes := true
	four := wireQuestion{Stem: "four", Options: []wireOption{{Text: "a", IsCorrect: &yes}, {Text: "b"}, {Text: "c"}, {Text: "d"}}}
	five := wireQuestion{Stem: "five", Options: append(append([]wireOption{}, four.Options...), wireOption{Text: "e"})}

	assert.Len(t, toGeneratedQuestions([]wireQuestion{four, five}, 0, 0), 2)

	qs := toGeneratedQuestions([]wireQuestion{five, four}, 0, 4)
	require.Len(t, qs, 1)
	assert.Equal(t, "four", qs[0].Stem)
	assert.Len(t, qs[0].Options, 4)
}

func TestAIServerQuestionSourceFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"schema mismatch": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"questions": [{"stem": 42, "options": []}]}`))
		},
		"missing questions": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"generatedCount": 0}`))
		},
		"no valid questions": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"questions": [{"stem": "x", "options": []}]}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewAIServerQuestionSource(sourceConfig(srv.URL)).Generate(context.Background(), GenerateRequest{NumQuestions: 3})
			assert.ErrorIs(t, err, util.ErrQuestionGenerationFailed)
		})
	}
}

func TestOpenAIQuestionSource(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": validQuestionSet,
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	src, err := NewOpenAIQuestionSource(config.QuestionSourceConfig{
		Type:    util.QuestionSourceOpenAI,
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	qs, err := src.Generate(context.Background(), GenerateRequest{EducationID: "edu-1", NumQuestions: 5, Language: "ko"})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].CorrectIndex)

	assert.Equal(t, defaultOpenAIModel, body["model"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIQuestionSourceRequiresKey(t *testing.T) {
	_, err := NewOpenAIQuestionSource(config.QuestionSourceConfig{})
	assert.Error(t, err)
}

func TestNewQuestionSource(t *testing.T) {
	src, err := NewQuestionSource(config.QuestionSourceConfig{Type: util.QuestionSourceAIServer})
	require.NoError(t, err)
	assert.IsType(t, &AIServerQuestionSource{}, src)

	src, err = NewQuestionSource(config.QuestionSourceConfig{Type: util.QuestionSourceOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIQuestionSource{}, src)

	_, err = NewQuestionSource(config.QuestionSourceConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestBuildQuestionPrompt(t *testing.T) {
	p := buildQuestionPrompt(GenerateRequest{EducationID: "e", NumQuestions: 4, MaxOptions: 3, Language: "en", ExcludeStems: []string{"seen before"}})
	assert.Contains(t, p, "Generate 4 single-choice")
	assert.Contains(t, p, "at most 3 options")
	assert.Contains(t, p, "- seen before")
}
