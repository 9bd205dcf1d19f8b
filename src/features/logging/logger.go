package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"versio/src/features/config"
)

// SetupLogger builds the process-wide slog logger from the logger config
// section.
func SetupLogger(cfg *config.Manager) *slog.Logger {
	var formatter log.Formatter
	switch cfg.Get().Logger.Format {
	case "json":
		formatter = log.JSONFormatter
	case "text":
		formatter = log.TextFormatter
	default:
		formatter = log.LogfmtFormatter
	}

	level := log.InfoLevel
	switch cfg.Get().Logger.Level {
	case "debug":
		level = log.DebugLevel
	case "info":
		level = log.InfoLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "Versio",
		Formatter:       formatter,
		Level:           level,
	})

	logger := slog.New(handler)
	return logger
}
