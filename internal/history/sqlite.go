package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lab-report-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		correlation_id TEXT NOT NULL DEFAULT '',
		valid_lab_count INTEGER NOT NULL DEFAULT 0,
		verdict TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_correlation_id ON analyses(correlation_id);
	`

	_, err := db.Exec(schema)
	return err
}

func scanRecord(s scanner) (*domain.AnalysisRecord, error) {
	rec := &domain.AnalysisRecord{}
	var verdict []byte

	if err := s.Scan(&rec.ID, &rec.CorrelationID, &rec.ValidLabCount, &verdict, &rec.CreatedAt); err != nil {
		return nil, err
	}

	v, err := decodeVerdict(verdict)
	if err != nil {
		return nil, err
	}
	rec.Verdict = v
	return rec, nil
}

// Save stores a record.
func (s *SQLiteStore) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	verdict, err := encodeVerdict(record.Verdict)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, correlation_id, valid_lab_count, verdict, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		record.ID,
		record.CorrelationID,
		record.ValidLabCount,
		verdict,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, correlation_id, valid_lab_count, verdict, created_at
		FROM analyses
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return rec, nil
}

// List returns records newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.AnalysisRecord, error) {
	limit, offset = NormalizePage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, correlation_id, valid_lab_count, verdict, created_at
		FROM analyses
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.AnalysisRecord, 0, limit)
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
	return records, nil
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// Delete removes a record by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
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

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
