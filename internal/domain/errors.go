package domain

import (
	"fmt"
)

// ErrorResponse is the only error body returned to callers.
// The analysis engine itself never produces one; these come from the
// transport around it.
type ErrorResponse struct {
	Error         string `json:"error"`
	Details       string `json:"details"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewErrorResponse creates an ErrorResponse from a message and an optional cause
func NewErrorResponse(message string, cause error, correlationID string) *ErrorResponse {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &ErrorResponse{
		Error:         message,
		Details:       details,
		CorrelationID: correlationID,
	}
}

// String implements fmt.Stringer
func (e *ErrorResponse) String() string {
	if e.Details == "" {
		return e.Error
	}
	return fmt.Sprintf("%s: %s", e.Error, e.Details)
}

// Error messages shared by the HTTP and MCP surfaces
const (
	MsgInvalidRequest  = "Invalid request body"
	MsgInternalServer  = "Internal server error"
	MsgNotFound        = "Not found"
	MsgHistoryDisabled = "Analysis history is disabled"
	MsgRateLimited     = "Too many requests"
	MsgRequestTimeout  = "Request timeout"
)
