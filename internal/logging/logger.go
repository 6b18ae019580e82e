// Package logging builds the logrus loggers shared by both binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
)

// NewLogger returns a logger writing to stderr with the configured level
// and format. Unknown levels fall back to info, unknown formats to JSON.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo is NewLogger with an explicit output.
func NewLoggerTo(out io.Writer, cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
