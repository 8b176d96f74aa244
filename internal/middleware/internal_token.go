package middleware

import (
	"crypto/subtle"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalTokenMiddleware 服务间调用校验 X-Internal-Token
func InternalTokenMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Auth.InternalToken
		got := c.GetHeader(util.HeaderInternalToken)
		if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			logger.Log.Warn("内部接口令牌无效",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()))
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
