package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/middleware"
)

// handleIndex answers the liveness banner
func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	history := "disabled"
	if s.history != nil {
		history = "enabled"
	}
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"history":   history,
	}
	if s.breaker != nil {
		body["history_breaker"] = s.breaker.State().String()
	}
	c.JSON(http.StatusOK, body)
}

// handleAnalyze runs one lab analysis
func (s *Server) handleAnalyze(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.MsgInvalidRequest, err)
		return
	}

	resp := s.analyzer.Analyze(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// handleListAnalyses returns a page of stored analyses, newest first
func (s *Server) handleListAnalyses(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, http.StatusNotFound, domain.MsgHistoryDisabled, domain.ErrHistoryDisabled)
		return
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.MsgInvalidRequest, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.MsgInvalidRequest, err)
		return
	}

	ctx := c.Request.Context()
	records, err := s.history.List(ctx, limit, offset)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.MsgInternalServer, err)
		return
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.MsgInternalServer, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleGetAnalysis returns one stored analysis
func (s *Server) handleGetAnalysis(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, http.StatusNotFound, domain.MsgHistoryDisabled, domain.ErrHistoryDisabled)
		return
	}

	record, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleDeleteAnalysis removes one stored analysis
func (s *Server) handleDeleteAnalysis(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, http.StatusNotFound, domain.MsgHistoryDisabled, domain.ErrHistoryDisabled)
		return
	}

	if err := s.history.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, domain.MsgNotFound, err)
		return
	}
	s.respondError(c, http.StatusInternalServerError, domain.MsgInternalServer, err)
}

func (s *Server) respondError(c *gin.Context, status int, message string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, domain.NewErrorResponse(message, err, middleware.GetCorrelationID(c)))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}
