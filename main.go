// @title Edu Quiz 后端 API
// @version 1.0
// @description 课程测验尝试引擎：出题、作答、评分、离开追踪与统计。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"edu_quiz_backend/internal/app"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/pkg/database"
	"edu_quiz_backend/pkg/logger"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string
	var forceMigrate bool

	serve := func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return err
		}
		cfg.ForceMigrate = forceMigrate

		application := app.NewApp(cfg)
		defer logger.Log.Sync()
		application.Run(configDir)
		return nil
	}

	root := &cobra.Command{
		Use:          "quizd",
		Short:        "课程测验服务",
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "configs", "配置文件目录")
	root.Flags().BoolVar(&forceMigrate, "migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE:  serve,
	}
	serveCmd.Flags().BoolVar(&forceMigrate, "migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "只执行数据库迁移，完成后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			logger.InitLogger(cfg)
			defer logger.Log.Sync()

			db, err := database.InitDB(&cfg.Database, true)
			if err != nil {
				logger.Log.Error("Database migration failed", zap.Error(err))
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
			log.Println("数据库迁移完成，退出程序")
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	return root
}
