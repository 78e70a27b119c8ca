package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/beach-tennis-live/config"
	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the documents table and the change trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			logger := newLogger("info")

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			connectCtx, cancelConnect := context.WithTimeout(ctx, dbConnectTimeout)
			defer cancelConnect()
			conn, err := db.Connect(connectCtx, cfg.DatabaseURL, db.ToolPool, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx, conn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("schema applied")
			return nil
		},
	}
}
