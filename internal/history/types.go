// Package history stores completed analyses so they can be listed later.
// Records hold the verdict and request metadata only; patient identity
// is never persisted.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lab-report-server/internal/domain"
)

// Default and maximum page sizes for List.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Store defines the interface for analysis history storage operations.
type Store interface {
	domain.AnalysisHistory

	// Save stores a record. The record must already carry an ID.
	Save(ctx context.Context, record *domain.AnalysisRecord) error

	// Delete removes a record by ID. Deleting a missing record returns
	// domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases resources.
	Close() error
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// NormalizePage clamps pagination arguments to sane values.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func encodeVerdict(v *domain.Verdict) (string, error) {
	if v == nil {
		v = domain.NoDataVerdict()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode verdict: %w", err)
	}
	return string(data), nil
}

func decodeVerdict(data []byte) (*domain.Verdict, error) {
	v := &domain.Verdict{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}
	return v, nil
}

func validateRecord(record *domain.AnalysisRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil: %w", domain.ErrInvalidRequest)
	}
	if record.ID == "" {
		return fmt.Errorf("record ID is required: %w", domain.ErrInvalidRequest)
	}
	return nil
}
