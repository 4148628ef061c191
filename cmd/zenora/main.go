package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/zenora/backend/internal/config"
	"github.com/zhouzirui/zenora/backend/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "zenora",
		Short:        "Zenora mental wellness companion backend",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newDetectCmd(),
		newSpeakCmd(),
	)
	return root
}

// loadConfig reads .env when present, then the environment, and configures
// the global logger.
func loadConfig() (*config.Config, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log)

	if envErr != nil {
		logrus.WithError(envErr).Debug("no .env file loaded, using process environment only")
	}
	return cfg, nil
}
