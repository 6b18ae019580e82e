package domain

import (
	"context"
)

// LabAnalyzer runs the full pipeline for one request:
// normalize, evaluate, render.
type LabAnalyzer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) *AnalyzeResponse
}

// AnalysisHistory reads back stored analyses
type AnalysisHistory interface {
	Get(ctx context.Context, id string) (*AnalysisRecord, error)
	List(ctx context.Context, limit, offset int) ([]*AnalysisRecord, error)
	Count(ctx context.Context) (int64, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetHistoryConfig() *HistoryConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
