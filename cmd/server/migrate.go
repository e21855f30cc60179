package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"natours_backend/internal/platform/db"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbCfg := cfg.DB
	dbCfg.AutoMigrate = false
	conn, err := db.Open(cmd.Context(), dbCfg)
	if err != nil {
		return err
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := db.Migrate(conn); err != nil {
		return oops.Code("migrate_failed").With("driver", dbCfg.Driver).Wrap(err)
	}
	logger.Info("migrations completed", "driver", dbCfg.Driver)
	return nil
}
