package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/zenora/backend/internal/logging"
	"github.com/zhouzirui/zenora/backend/internal/store/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the mood_entries and exercise_sessions tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			// Open migrates on the way in.
			st, err := db.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			logging.Component("migrate").WithField("driver", cfg.Store.Driver).Info("schema up to date")
			return nil
		},
	}
}
