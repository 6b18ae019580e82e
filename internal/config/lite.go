// Package config provides configuration management for the lab report servers.
// This file contains the environment-only configuration of the MCP server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lab-report-server/internal/domain"
)

// LiteConfig is the configuration of the stdio MCP server.
// It requires no config file and no external database.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// History
	HistoryEnabled bool // Persist analyses to SQLite under DataDir

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".lab-report-server")

	return &LiteConfig{
		DataDir:        dataDir,
		HistoryEnabled: false,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("LAB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("LAB_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.HistoryEnabled = b
		}
	}

	if v := os.Getenv("LAB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LAB_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// HistoryDBPath returns the path to the history SQLite database.
func (c *LiteConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Logging returns the logging section in the shape the logger factory takes.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
