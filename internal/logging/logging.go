// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/config"
)

// Setup applies level and format to the standard logger. Unknown levels fall
// back to info so a typo never silences the service.
func Setup(cfg config.LogConfig) {
	Configure(logrus.StandardLogger(), cfg, os.Stderr)
}

// Configure applies cfg to logger and points it at out.
func Configure(logger *logrus.Logger, cfg config.LogConfig, out io.Writer) {
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
