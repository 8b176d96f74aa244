package app

import (
	"bytes"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/database"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const internalToken = "svc-internal-token"

const generatedSet = `{"questions": [
  {"stem": "q1", "options": [{"text": "a", "isCorrect": true}, {"text": "b"}, {"text": "c"}]},
  {"stem": "q2", "options": [{"text": "a"}, {"text": "b", "isCorrect": true}, {"text": "c"}]},
  {"stem": "q3", "options": [{"text": "a"}, {"text": "b"}, {"text": "c", "isCorrect": true}]}
]}`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app     *App
	archive string
	user    string
	dept    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(generatedSet))
	}))
	t.Cleanup(ai.Close)

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	archive := t.TempDir()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{TrustGatewayHeader: true, InternalToken: internalToken},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: archive},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		QuestionSource: config.QuestionSourceConfig{
			Type:         util.QuestionSourceAIServer,
			BaseURL:      ai.URL,
			Language:     "ko",
			NumQuestions: 3,
			MaxOptions:   4,
			Timeout:      5 * time.Second,
		},
		Quiz: config.QuizConfig{
			PassScore:        80,
			MaxAttempts:      2,
			DefaultTimeLimit: 900,
			LeaveClockSkew:   30 * time.Second,
		},
	}

	a, err := newApp(cfg, db, nil)
	require.NoError(t, err)
	return &testServer{app: a, archive: archive, user: uuid.NewString(), dept: "ops"}
}

func (s *testServer) call(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(util.HeaderUserUUID, s.user)
	req.Header.Set(util.HeaderUserDepartment, s.dept)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// internal 以服务身份调用 /internal 路由，token 为空时不带令牌头
func (s *testServer) internal(t *testing.T, path, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(util.HeaderInternalToken, token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// takeQuiz 开始并提交一次测验，correct 为答对的题数（按题目顺序）
func (s *testServer) takeQuiz(t *testing.T, edu string, correct int) {
	t.Helper()
	code, env := s.call(t, http.MethodGet, "/api/quiz/"+edu+"/start", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var start startData
	require.NoError(t, json.Unmarshal(env.Data, &start))

	answers := make([]map[string]any, 0, len(start.Questions))
	for i, q := range start.Questions {
		// 第 i 题的正确答案下标为 i
		idx := i
		if i >= correct {
			idx = (i + 1) % len(q.Choices)
		}
		answers = append(answers, map[string]any{"questionId": q.QuestionID, "userSelectedIndex": idx})
	}
	code, env = s.call(t, http.MethodPost, "/api/quiz/attempt/"+start.AttemptID+"/submit", map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, code, env.Message)
}

type startData struct {
	AttemptID string `json:"attemptId"`
	AttemptNo int    `json:"attemptNo"`
	Questions []struct {
		QuestionID string   `json:"questionId"`
		Question   string   `json:"question"`
		Choices    []string `json:"choices"`
	} `json:"questions"`
}

func TestQuizFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	edu := uuid.NewString()

	code, env := s.call(t, http.MethodGet, "/api/quiz/"+edu+"/start", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.NotContains(t, string(env.Data), "correct")

	var start startData
	require.NoError(t, json.Unmarshal(env.Data, &start))
	require.Len(t, start.Questions, 3)
	assert.Equal(t, 1, start.AttemptNo)

	// 续答返回同一尝试
	code, env = s.call(t, http.MethodGet, "/api/quiz/"+edu+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	var again startData
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, start.AttemptID, again.AttemptID)

	attemptPath := "/api/quiz/attempt/" + start.AttemptID

	code, env = s.call(t, http.MethodPost, attemptPath+"/leave", map[string]any{"reason": "blur", "leaveSeconds": 3})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"leaveCount":1`)

	code, _ = s.call(t, http.MethodGet, attemptPath+"/timer", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.call(t, http.MethodGet, attemptPath+"/result", nil)
	assert.Equal(t, http.StatusNotFound, code)

	answers := map[string]any{"answers": []map[string]any{
		{"questionId": start.Questions[0].QuestionID, "userSelectedIndex": 0},
		{"questionId": start.Questions[1].QuestionID, "userSelectedIndex": 1},
		{"questionId": start.Questions[2].QuestionID, "userSelectedIndex": 0},
	}}
	code, env = s.call(t, http.MethodPost, attemptPath+"/submit", answers)
	require.Equal(t, http.StatusOK, code, env.Message)
	var submitted struct {
		Score        int  `json:"score"`
		Passed       bool `json:"passed"`
		CorrectCount int  `json:"correctCount"`
		WrongCount   int  `json:"wrongCount"`
		TotalCount   int  `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, 67, submitted.Score)
	assert.False(t, submitted.Passed)
	assert.Equal(t, 2, submitted.CorrectCount)
	assert.Equal(t, 1, submitted.WrongCount)
	assert.Equal(t, 3, submitted.TotalCount)

	code, _ = s.call(t, http.MethodPost, attemptPath+"/submit", answers)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.call(t, http.MethodGet, "/api/quiz/"+start.AttemptID+"/wrongs", nil)
	require.Equal(t, http.StatusOK, code)
	var wrongs []struct {
		Question           string `json:"question"`
		UserAnswerIndex    *int   `json:"userAnswerIndex"`
		CorrectAnswerIndex int    `json:"correctAnswerIndex"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wrongs))
	require.Len(t, wrongs, 1)
	assert.Equal(t, "q3", wrongs[0].Question)
	assert.Equal(t, 0, *wrongs[0].UserAnswerIndex)
	assert.Equal(t, 2, wrongs[0].CorrectAnswerIndex)

	code, env = s.call(t, http.MethodGet, attemptPath+"/result", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"score":67`)

	code, env = s.call(t, http.MethodGet, "/api/quiz/"+edu+"/retry-info", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"attemptCount":1`)

	code, env = s.call(t, http.MethodGet, "/api/quiz/my-attempts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), start.AttemptID)

	code, env = s.internal(t, "/internal/quiz/department-stats?educationId="+edu, internalToken)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"department":"ops"`)

	_, err := os.Stat(filepath.Join(s.archive, "quiz-attempts", edu, start.AttemptID+".json"))
	assert.NoError(t, err)

	// 提交后重新开始得到第二次尝试
	code, env = s.call(t, http.MethodGet, "/api/quiz/"+edu+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	var next startData
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.Equal(t, 2, next.AttemptNo)
	assert.NotEqual(t, start.AttemptID, next.AttemptID)
}

func TestQuizRoutesRejectBadInput(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.call(t, http.MethodGet, "/api/quiz/not-a-uuid/start", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.call(t, http.MethodGet, "/api/quiz/attempt/"+uuid.NewString()+"/result", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(t, http.MethodPost, "/api/quiz/attempt/"+uuid.NewString()+"/submit", map[string]any{"answers": []any{}})
	assert.Equal(t, http.StatusNotFound, code)

	edu := uuid.NewString()
	code, env := s.call(t, http.MethodGet, "/api/quiz/"+edu+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	var start startData
	require.NoError(t, json.Unmarshal(env.Data, &start))

	code, _ = s.call(t, http.MethodPost, "/api/quiz/attempt/"+start.AttemptID+"/submit", map[string]any{
		"answers": []map[string]any{{"questionId": uuid.NewString(), "userSelectedIndex": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// 其他用户看不到该尝试
	s.user = uuid.NewString()
	code, _ = s.call(t, http.MethodGet, "/api/quiz/attempt/"+start.AttemptID+"/timer", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthAndIdentity(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w = httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quiz/my-attempts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfigCallbacks(t *testing.T) {
	s := newTestServer(t)

	cfg := *s.app.Config
	cfg.Quiz.PassScore = 50
	s.app.ApplyConfig(&cfg)
	assert.Equal(t, 50, s.app.services.quiz.Grader.PassScore())
}

func TestDepartmentStatsInternalRoute(t *testing.T) {
	s := newTestServer(t)
	eduA, eduB := uuid.NewString(), uuid.NewString()

	s.dept = "dev"
	s.takeQuiz(t, eduA, 3)

	s.user, s.dept = uuid.NewString(), "ops"
	s.takeQuiz(t, eduB, 0)

	type stat struct {
		Department       string  `json:"department"`
		ParticipantCount int     `json:"participantCount"`
		AverageScore     float64 `json:"averageScore"`
	}

	// 不带 educationId 时统计全部课程
	code, env := s.internal(t, "/internal/quiz/department-stats", internalToken)
	require.Equal(t, http.StatusOK, code, env.Message)
	var all []stat
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 2)
	byDept := map[string]stat{}
	for _, st := range all {
		byDept[st.Department] = st
	}
	assert.Equal(t, 1, byDept["dev"].ParticipantCount)
	assert.Equal(t, 100.0, byDept["dev"].AverageScore)
	assert.Equal(t, 1, byDept["ops"].ParticipantCount)
	assert.Equal(t, 0.0, byDept["ops"].AverageScore)

	code, env = s.internal(t, "/internal/quiz/department-stats?educationId="+eduA, internalToken)
	require.Equal(t, http.StatusOK, code)
	var one []stat
	require.NoError(t, json.Unmarshal(env.Data, &one))
	require.Len(t, one, 1)
	assert.Equal(t, "dev", one[0].Department)

	code, _ = s.internal(t, "/internal/quiz/department-stats?educationId=bad", internalToken)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.internal(t, "/internal/quiz/department-stats", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.internal(t, "/internal/quiz/department-stats", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	// 用户接口下不再提供部门统计
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quiz/department-stats", nil)
	req.Header.Set(util.HeaderUserUUID, s.user)
	s.app.Router.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusOK, w.Code)
}
