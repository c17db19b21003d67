package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log, err := logger.New(env, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Open(database.Config{
			Path:          cfg.Database.Path,
			PoolSize:      cfg.Database.PoolSize,
			BusyTimeoutMS: cfg.Database.BusyTimeoutMS,
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		return database.NewMigrator(db, log).Run()
	},
}
