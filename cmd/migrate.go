package cmd

import (
	"voxshare/config"
	"voxshare/db"
	"voxshare/logger"
	"voxshare/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "初始化数据库结构",
	Long:  `创建用户表并迁移音频模型，不启动HTTP服务器`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})

		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.DB.Close()

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
		}
		defer db.CloseGormDB()

		if err := db.InitDB(); err != nil {
			logger.Fatal("Failed to initialize database", logger.ErrorField(err))
		}
		if err := db.AutoMigrateModels(&model.Audio{}); err != nil {
			logger.Fatal("Failed to migrate audio model", logger.ErrorField(err))
		}

		logger.Info("Migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
