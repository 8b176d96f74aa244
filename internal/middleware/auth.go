package middleware

import (
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthMiddleware 解析调用方身份：Bearer JWT，或在网关模式下信任 X-User-UUID
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromRequest(c, cfg)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if _, err := uuid.Parse(claims.UserID); err != nil {
			util.BadRequest(c, util.ErrInvalidUserID.Error())
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func claimsFromRequest(c *gin.Context, cfg *config.Config) (*util.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err))
			return nil, false
		}
		return claims, claims.UserID != ""
	}

	if cfg.Auth.TrustGatewayHeader {
		userID := strings.TrimSpace(c.GetHeader(util.HeaderUserUUID))
		if userID == "" {
			return nil, false
		}
		return &util.Claims{
			UserID:     userID,
			Department: strings.TrimSpace(c.GetHeader(util.HeaderUserDepartment)),
		}, true
	}

	return nil, false
}
