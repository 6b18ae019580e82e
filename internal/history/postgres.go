package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lab-report-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// PoolConfig sizes the PostgreSQL connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPostgresStore creates a new PostgreSQL history store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a connection pool through the pgx driver.
func NewPostgresStoreFromURL(databaseURL string, pool PoolConfig) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores a record.
func (s *PostgresStore) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	verdict, err := encodeVerdict(record.Verdict)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, correlation_id, valid_lab_count, verdict, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		record.ID,
		record.CorrelationID,
		record.ValidLabCount,
		verdict,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT id, correlation_id, valid_lab_count, verdict, created_at
		FROM analyses
		WHERE id = $1
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return rec, nil
}

// List returns records newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.AnalysisRecord, error) {
	limit, offset = NormalizePage(limit, offset)

	query := `
		SELECT id, correlation_id, valid_lab_count, verdict, created_at
		FROM analyses
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	if records == nil {
		records = []*domain.AnalysisRecord{}
	}
	return records, nil
}

// Count returns the total number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// Delete removes a record by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
