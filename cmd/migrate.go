package cmd

import (
	"log"

	"beatstore/config"
	"beatstore/db"
	"beatstore/logger"
	"beatstore/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Creates or updates the users, beats and purchases tables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		if err := db.Connect(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.AutoMigrate(&model.User{}, &model.Beat{}, &model.Purchase{}); err != nil {
			log.Fatalf("Failed to migrate models: %v", err)
		}

		log.Println("Migration completed.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
