package app

import (
	"edu_quiz_backend/docs"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/middleware"
	"edu_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 服务间调用（X-Internal-Token）
	internal := router.Group("/internal")
	internal.Use(middleware.InternalTokenMiddleware(cfg))
	{
		internal.GET("/quiz/department-stats", c.quiz.DepartmentStats)
	}

	// 3. 需要身份的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerQuizRoutes(authGroup, c)
	}
}

// gin 同一层级只允许一个通配名，课程ID与尝试ID共用 :id
func (a *App) registerQuizRoutes(group *gin.RouterGroup, c *controllers) {
	quiz := group.Group("/quiz")
	{
		quiz.GET("/my-attempts", c.quiz.MyAttempts)

		quiz.GET("/:id/start", c.quiz.Start)
		quiz.GET("/:id/wrongs", c.quiz.Wrongs)
		quiz.GET("/:id/retry-info", c.quiz.RetryInfo)

		attempt := quiz.Group("/attempt/:attemptId")
		{
			attempt.POST("/save", c.quiz.Save)
			attempt.POST("/submit", c.quiz.Submit)
			attempt.POST("/leave", c.quiz.Leave)
			attempt.GET("/result", c.quiz.Result)
			attempt.GET("/timer", c.quiz.Timer)
		}
	}
}
