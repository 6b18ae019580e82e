package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/history"
)

const (
	toolAnalyzeLabs  = "analyze_labs"
	toolListAnalyses = "list_analyses"
)

// AnalyzeLabsParams defines parameters for the analyze_labs tool.
// Both fields are decoded with the same lenient rules as the HTTP body.
type AnalyzeLabsParams struct {
	PatientInfo any `json:"patientInfo,omitempty"`
	Labs        any `json:"labs,omitempty"`
}

// ListAnalysesParams defines parameters for the list_analyses tool
type ListAnalysesParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ListAnalysesResult is the JSON body of a list_analyses result.
type ListAnalysesResult struct {
	Analyses []*domain.AnalysisRecord `json:"analyses"`
	Total    int64                    `json:"total"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

// handleAnalyzeLabs handles the analyze_labs tool invocation
func (s *LiteServer) handleAnalyzeLabs(ctx context.Context, req *mcp.CallToolRequest, params AnalyzeLabsParams) (*mcp.CallToolResult, any, error) {
	correlationID := uuid.NewString()
	s.logger.WithFields(logrus.Fields{
		"tool":           toolAnalyzeLabs,
		"correlation_id": correlationID,
	}).Info("Tool invoked")

	request, err := decodeAnalyzeParams(params)
	if err != nil {
		return s.createErrorResult(domain.MsgInvalidRequest, err), nil, nil
	}

	resp := s.analyzer.Analyze(domain.WithCorrelationID(ctx, correlationID), request)
	return s.jsonResult(resp)
}

// handleListAnalyses handles the list_analyses tool invocation
func (s *LiteServer) handleListAnalyses(ctx context.Context, req *mcp.CallToolRequest, params ListAnalysesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolListAnalyses).Info("Tool invoked")

	if s.history == nil {
		return s.createErrorResult(domain.MsgHistoryDisabled, domain.ErrHistoryDisabled), nil, nil
	}

	limit, offset := history.NormalizePage(params.Limit, params.Offset)
	records, err := s.history.List(ctx, limit, offset)
	if err != nil {
		return s.createErrorResult("Failed to list analyses", err), nil, nil
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		return s.createErrorResult("Failed to count analyses", err), nil, nil
	}

	return s.jsonResult(ListAnalysesResult{
		Analyses: records,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// decodeAnalyzeParams routes the tool arguments through the request
// decoder so that lab values and patient fields get the same treatment
// as over HTTP.
func decodeAnalyzeParams(params AnalyzeLabsParams) (*domain.AnalyzeRequest, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	var request domain.AnalyzeRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("failed to decode arguments: %w", err)
	}
	return &request, nil
}

func (s *LiteServer) jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return s.createErrorResult(domain.MsgInternalServer, err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// createErrorResult creates a standardized error result for tool calls
func (s *LiteServer) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
		s.logger.WithError(err).Warn(message)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
