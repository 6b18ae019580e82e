package domain

import (
	"time"
)

// AnalyzeRequest is the logical request accepted by every transport.
type AnalyzeRequest struct {
	PatientInfo PatientInfo `json:"patientInfo"`
	Labs        RawLabs     `json:"labs"`
}

// AnalyzeResponse is returned on success: the two narrative reports and
// the verdict they were rendered from.
type AnalyzeResponse struct {
	ReportAr   string   `json:"reportAr"`
	ReportEn   string   `json:"reportEn"`
	RawResults *Verdict `json:"rawResults"`
}

// Reports holds the rendered narrative documents of one analysis.
type Reports struct {
	Arabic  string
	English string
}

// AnalysisRecord is what the history store keeps about one analysis.
// It never contains patient identity.
type AnalysisRecord struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	ValidLabCount int       `json:"valid_lab_count"`
	Verdict       *Verdict  `json:"verdict"`
	CreatedAt     time.Time `json:"created_at"`
}
