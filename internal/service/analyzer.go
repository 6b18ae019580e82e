package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
)

// AnalysisRecorder receives every completed analysis. Implementations
// must not block the caller for long and must swallow their own errors.
type AnalysisRecorder interface {
	Record(ctx context.Context, record *domain.AnalysisRecord)
}

// AnalyzerService runs the normalize, evaluate and render pipeline for
// one request at a time. It keeps no per-request state and may be shared
// across goroutines.
type AnalyzerService struct {
	logger      *logrus.Logger
	engine      *RuleEngine
	synthesizer *ReportSynthesizer
	recorder    AnalysisRecorder
	clock       func() time.Time
}

// AnalyzerOption is a functional option for AnalyzerService.
type AnalyzerOption func(*AnalyzerService)

// WithClock overrides the time source used for report dates.
func WithClock(clock func() time.Time) AnalyzerOption {
	return func(a *AnalyzerService) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithRecorder hands every completed analysis to the recorder.
func WithRecorder(recorder AnalysisRecorder) AnalyzerOption {
	return func(a *AnalyzerService) {
		a.recorder = recorder
	}
}

// NewAnalyzerService creates a new analyzer service
func NewAnalyzerService(logger *logrus.Logger, opts ...AnalyzerOption) *AnalyzerService {
	if logger == nil {
		logger = newDiscardLogger()
	}

	a := &AnalyzerService{
		logger:      logger,
		engine:      NewRuleEngine(logger),
		synthesizer: NewReportSynthesizer(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze evaluates the lab panel of req and renders both reports.
// It always returns a response; a nil request is treated as empty.
func (a *AnalyzerService) Analyze(ctx context.Context, req *domain.AnalyzeRequest) *domain.AnalyzeResponse {
	startTime := time.Now()
	if req == nil {
		req = &domain.AnalyzeRequest{}
	}

	// One timestamp per request so both reports print the same date.
	now := a.clock()
	correlationID := domain.CorrelationIDFrom(ctx)

	if unknown := UnknownLabKeys(req.Labs); len(unknown) > 0 {
		a.logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"keys":           unknown,
		}).Debug("Ignoring unrecognized lab keys")
	}

	panel := NormalizeLabs(req.Labs)
	verdict := a.engine.Evaluate(panel)
	reports := a.synthesizer.Synthesize(verdict, req.PatientInfo, now)

	if a.recorder != nil {
		a.recorder.Record(ctx, &domain.AnalysisRecord{
			CorrelationID: correlationID,
			ValidLabCount: verdict.ValidLabCount,
			Verdict:       verdict,
			CreatedAt:     now,
		})
	}

	a.logger.WithFields(logrus.Fields{
		"correlation_id":  correlationID,
		"submitted_labs":  len(req.Labs),
		"valid_labs":      verdict.ValidLabCount,
		"has_valid_labs":  verdict.HasValidLabs,
		"processing_time": time.Since(startTime),
	}).Info("Lab analysis completed")

	return &domain.AnalyzeResponse{
		ReportAr:   reports.Arabic,
		ReportEn:   reports.English,
		RawResults: verdict,
	}
}
