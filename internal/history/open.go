package history

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
)

// Open builds the store selected by cfg. It returns (nil, nil) when
// history is disabled.
func Open(cfg domain.HistoryConfig, logger *logrus.Logger) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch strings.ToLower(cfg.Driver) {
	case domain.HistoryDriverSQLite, "":
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite history: %w", err)
		}
		logger.WithField("path", cfg.SQLitePath).Info("SQLite analysis history ready")
		return store, nil

	case domain.HistoryDriverPostgres:
		if cfg.RunMigrations {
			if err := migrateUp(cfg.PostgresURL, logger); err != nil {
				return nil, err
			}
		}
		store, err := NewPostgresStoreFromURL(cfg.PostgresURL, PoolConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres history: %w", err)
		}
		logger.WithField("max_open_conns", cfg.MaxOpenConns).Info("PostgreSQL analysis history ready")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

func migrateUp(databaseURL string, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migration runner")
		}
	}()
	return runner.Up()
}
