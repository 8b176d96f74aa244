package middleware

import (
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(cfg), func(c *gin.Context) {
		u := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": u.UserID, "department": u.Department})
	})
	return r
}

func do(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareBearer(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := newRouter(cfg)
	userID := uuid.NewString()

	token, err := util.GenerateJWT(userID, "hr", testSecret, time.Hour)
	require.NoError(t, err)

	w := do(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)
	assert.Contains(t, w.Body.String(), `"department":"hr"`)

	bad, err := util.GenerateJWT(userID, "hr", "another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Bearer " + bad}).Code)

	expired, err := util.GenerateJWT(userID, "", testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Bearer " + expired}).Code)
}

func TestAuthMiddlewareMissingAndMalformed(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := newRouter(cfg)

	assert.Equal(t, http.StatusUnauthorized, do(r, nil).Code)

	// 未开启网关模式时忽略该头
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{util.HeaderUserUUID: uuid.NewString()}).Code)

	token, err := util.GenerateJWT("not-a-uuid", "", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, do(r, map[string]string{"Authorization": "Bearer " + token}).Code)
}

func TestAuthMiddlewareGatewayHeader(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{TrustGatewayHeader: true}}
	r := newRouter(cfg)
	userID := uuid.NewString()

	w := do(r, map[string]string{
		util.HeaderUserUUID:       userID,
		util.HeaderUserDepartment: "finance",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)
	assert.Contains(t, w.Body.String(), "finance")

	assert.Equal(t, http.StatusBadRequest, do(r, map[string]string{util.HeaderUserUUID: "12345"}).Code)
}

func TestInternalTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	newInternal := func(token string) *gin.Engine {
		cfg := &config.Config{Auth: config.AuthConfig{InternalToken: token}}
		r := gin.New()
		r.GET("/internal/ping", InternalTokenMiddleware(cfg), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return r
	}
	call := func(r *gin.Engine, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/internal/ping", nil)
		if token != "" {
			req.Header.Set(util.HeaderInternalToken, token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	r := newInternal("svc-token")
	assert.Equal(t, http.StatusOK, call(r, "svc-token"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "other"))
	assert.Equal(t, http.StatusUnauthorized, call(r, ""))

	// 未配置令牌时一律拒绝
	assert.Equal(t, http.StatusUnauthorized, call(newInternal(""), ""))
}
