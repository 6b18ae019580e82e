package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lab-report-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v           *viper.Viper
	configPaths []string
	config      *domain.Config
}

// DefaultConfigPaths are searched, in order, for config.yaml.
var DefaultConfigPaths = []string{".", "./config", "/etc/lab-report-server/"}

// NewManager creates a new configuration manager. When no paths are given
// DefaultConfigPaths is searched.
func NewManager(configPaths ...string) (*Manager, error) {
	if len(configPaths) == 0 {
		configPaths = DefaultConfigPaths
	}
	m := &Manager{configPaths: configPaths}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range m.configPaths {
		v.AddConfigPath(p)
	}

	// LAB_REPORT_SERVER_PORT overrides server.port
	v.SetEnvPrefix("LAB_REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", "12h")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.max_clients", 10000)

	// History defaults
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.driver", domain.HistoryDriverSQLite)
	v.SetDefault("history.sqlite_path", "./data/history.db")
	v.SetDefault("history.postgres_url", "")
	v.SetDefault("history.run_migrations", true)
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 2)
	v.SetDefault("history.conn_max_lifetime", "5m")
	v.SetDefault("history.breaker.max_requests", 1)
	v.SetDefault("history.breaker.interval", "60s")
	v.SetDefault("history.breaker.timeout", "30s")
	v.SetDefault("history.breaker.consecutive_failures", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetHistoryConfig returns history store configuration
func (m *Manager) GetHistoryConfig() *domain.HistoryConfig {
	return &m.config.History
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks a loaded configuration for values the server cannot run with.
func Validate(config *domain.Config) error {
	if config == nil {
		return errors.New("configuration is nil")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RequestTimeout < 0 {
		return fmt.Errorf("invalid request timeout: %s", config.Server.RequestTimeout)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive: %v", config.RateLimit.RequestsPerSecond)
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive: %d", config.RateLimit.Burst)
		}
		if config.RateLimit.MaxClients <= 0 {
			return fmt.Errorf("rate limit max_clients must be positive: %d", config.RateLimit.MaxClients)
		}
	}

	if config.History.Enabled {
		switch strings.ToLower(config.History.Driver) {
		case domain.HistoryDriverSQLite:
			if config.History.SQLitePath == "" {
				return fmt.Errorf("history sqlite_path is required for the sqlite driver")
			}
		case domain.HistoryDriverPostgres:
			if config.History.PostgresURL == "" {
				return fmt.Errorf("history postgres_url is required for the postgres driver")
			}
		default:
			return fmt.Errorf("invalid history driver: %s", config.History.Driver)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (m *Manager) Address() string {
	return fmt.Sprintf("%s:%d", m.config.Server.Host, m.config.Server.Port)
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
