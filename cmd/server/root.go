package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"natours_backend/internal/app/config"
	"natours_backend/internal/platform/logging"
)

const serviceName = "natours"

// NewRootCmd creates the root command. Subcommands share the config flags.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Natours API server",
		SilenceUsage: true,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// loadConfig reads .env (if present), then the layered configuration, and
// installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	// .env は任意。無ければ環境変数のみで動く
	_ = godotenv.Load(".env")

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger := logging.SetDefault(serviceName, cfg.Log.Format, cfg.Log.Level)
	return cfg, logger, nil
}
