package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/lab-report-server/internal/domain"
)

// defaultSaveTimeout bounds a single history write.
const defaultSaveTimeout = 2 * time.Second

// Recorder writes completed analyses to a Store behind a circuit breaker.
// Failures are logged and never reach the caller, so a broken database
// cannot fail an analysis.
type Recorder struct {
	store   Store
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
	timeout time.Duration
	newID   func() string
}

// NewRecorder wraps store with a circuit breaker configured from cfg.
func NewRecorder(store Store, cfg domain.BreakerConfig, logger *logrus.Logger) *Recorder {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "AnalysisHistory",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
		// A missing row or a bad record is not a database outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidRequest)
		},
	}

	return &Recorder{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		timeout: defaultSaveTimeout,
		newID:   func() string { return uuid.New().String() },
	}
}

// Record assigns an ID to record when it has none and saves it.
func (r *Recorder) Record(ctx context.Context, record *domain.AnalysisRecord) {
	if record == nil {
		return
	}
	if record.ID == "" {
		record.ID = r.newID()
	}

	// The write outlives a cancelled request.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.store.Save(saveCtx, record)
	})
	if err == nil {
		return
	}

	entry := r.logger.WithFields(logrus.Fields{
		"correlation_id": record.CorrelationID,
		"analysis_id":    record.ID,
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		entry.Debug("Analysis history unavailable, record dropped")
		return
	}
	entry.WithError(err).Warn("Failed to record analysis")
}

// State returns the breaker state, for health reporting.
func (r *Recorder) State() gobreaker.State {
	return r.breaker.State()
}
