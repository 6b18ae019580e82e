package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/history"
	"github.com/lab-report-server/internal/middleware"
	"github.com/lab-report-server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// staticConfig is a ConfigManager over a fixed Config.
type staticConfig struct {
	cfg *domain.Config
}

func (m *staticConfig) GetConfig() *domain.Config { return m.cfg }
func (m *staticConfig) GetServerConfig() *domain.ServerConfig { return &m.cfg.Server }
func (m *staticConfig) GetHistoryConfig() *domain.HistoryConfig { return &m.cfg.History }
func (m *staticConfig) Reload() error { return nil }
func (m *staticConfig) Validate() error { return nil }
func (m *staticConfig) IsProduction() bool { return false }
func (m *staticConfig) IsDevelopment() bool { return true }

func testConfig() *domain.Config {
	return &domain.Config{
		Environment: "test",
		Server:      domain.ServerConfig{Host: "127.0.0.1", Port: 5000, RequestTimeout: 5 * time.Second},
		CORS:        domain.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit:   domain.RateLimitConfig{Enabled: false},
		Logging:     domain.LoggingConfig{Level: "info", Format: "json"},
	}
}

var fixedNow = time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg *domain.Config) *Server {
	t.Helper()
	return newTestServerWithHistory(t, cfg, nil)
}

func newTestServerWithHistory(t *testing.T, cfg *domain.Config, store history.Store) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()

	analyzerOpts := []service.AnalyzerOption{service.WithClock(func() time.Time { return fixedNow })}
	serverOpts := []ServerOption{WithLogger(logger)}
	if store != nil {
		recorder := history.NewRecorder(store, domain.BreakerConfig{}, logger)
		analyzerOpts = append(analyzerOpts, service.WithRecorder(recorder))
		serverOpts = append(serverOpts, WithHistory(store), WithHistoryBreaker(recorder))
	}

	s, err := NewServer(&staticConfig{cfg: cfg}, service.NewAnalyzerService(logger, analyzerOpts...), serverOpts...)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Banner, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, "disabled", body["history"])
	assert.NotContains(t, body, "history_breaker")
}

func TestHealth_HistoryBreaker(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	s := newTestServerWithHistory(t, testConfig(), store)

	w := doRequest(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "enabled", body["history"])
	assert.Equal(t, "closed", body["history_breaker"])
}

func TestAnalyze_Scenario(t *testing.T) {
	s := newTestServer(t, testConfig())
	payload := `{
		"patientInfo": {"Name": "Sara", "Age": 34, "Gender": "F"},
		"labs": {"HGB": 10, "MCV": 70, "WBC": 12, "Creatinine": 1.5}
	}`

	for _, path := range []string{"/analyze", "/api/v1/analyze"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, path, payload)
			require.Equal(t, http.StatusOK, w.Code)

			var resp domain.AnalyzeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.RawResults)
			assert.True(t, resp.RawResults.HasValidLabs)
			assert.Equal(t, []domain.Finding{domain.FindingIronDeficiency}, resp.RawResults.AnemiaPrediction)
			assert.Equal(t, domain.FindingKidneyHighCreatinine, resp.RawResults.CKDPrediction)
			assert.Contains(t, resp.ReportEn, "Sara")
			assert.Contains(t, resp.ReportEn, "15-01-2025 12:30")
			assert.Contains(t, resp.ReportAr, "15-01-2025 12:30")
		})
	}
}

func TestAnalyze_RawResultsKeys(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(s, http.MethodPost, "/analyze", `{"labs": {"WBC": 3.5}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		RawResults map[string]any `json:"rawResults"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))

	assert.Equal(t, 3.5, raw.RawResults["WBC_Value"])
	assert.Equal(t, true, raw.RawResults["hasInfection"])
	assert.Equal(t, []any{string(domain.FindingWBCLow)}, raw.RawResults["Infection_Prediction"])
}

func TestAnalyze_OutOfRangeLabValue(t *testing.T) {
	s := newTestServer(t, testConfig())
	payload := `{
		"patientInfo": {"Name": "Sara", "Age": 1e400, "Gender": "F"},
		"labs": {"HGB": 10, "MCV": 70, "WBC": 12, "Creatinine": 1.5, "PLT": 1e400}
	}`

	w := doRequest(s, http.MethodPost, "/analyze", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.RawResults)
	assert.True(t, resp.RawResults.HasValidLabs)
	assert.Equal(t, 4, resp.RawResults.ValidLabCount)
	assert.True(t, resp.RawResults.HasCBC)
	assert.Equal(t, []domain.Finding{domain.FindingIronDeficiency}, resp.RawResults.AnemiaPrediction)
	assert.Contains(t, resp.ReportEn, "Sara")
}

func TestAnalyze_EmptyLabs(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, payload := range []string{`{}`, `{"patientInfo": {}, "labs": {}}`, `{"labs": "nothing"}`} {
		w := doRequest(s, http.MethodPost, "/analyze", payload)
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.AnalyzeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.RawResults.HasValidLabs)
		assert.Equal(t, domain.FindingNoData, resp.RawResults.CKDPrediction)
		assert.Contains(t, resp.ReportEn, "Not specified")
	}
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, payload := range []string{"", "{not json", `["HGB", 10]`} {
		w := doRequest(s, http.MethodPost, "/analyze", payload)
		require.Equal(t, http.StatusBadRequest, w.Code, "payload %q", payload)

		var body domain.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.MsgInvalidRequest, body.Error)
		assert.NotEmpty(t, body.Details)
		assert.NotEmpty(t, body.CorrelationID)
	}
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.router.GET("/boom", func(c *gin.Context) { panic(errors.New("kaboom")) })

	w := doRequest(s, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.MsgInternalServer, body.Error)
	assert.Equal(t, "kaboom", body.Details)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://lab.example.org"}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://lab.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://lab.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNewServer_InvalidCORSOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"lab.example.org"}

	_, err := NewServer(&staticConfig{cfg: cfg}, service.NewAnalyzerService(nil))
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2, MaxClients: 10}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/", "").Code)

	w := doRequest(s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.MsgRateLimited, body.Error)
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/analyses"},
		{http.MethodGet, "/api/v1/analyses/abc"},
		{http.MethodDelete, "/api/v1/analyses/abc"},
	} {
		w := doRequest(s, tc.method, tc.path, "")
		require.Equal(t, http.StatusNotFound, w.Code)

		var body domain.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.MsgHistoryDisabled, body.Error)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	s := newTestServerWithHistory(t, testConfig(), store)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(s, http.MethodPost, "/analyze", `{"patientInfo":{"Name":"Sara"},"labs":{"HGB":10}}`).Code)
	}

	w := doRequest(s, http.MethodGet, "/api/v1/analyses?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Sara")

	var page struct {
		Analyses []*domain.AnalysisRecord `json:"analyses"`
		Total    int64                    `json:"total"`
		Limit    int                      `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Analyses, 2)
	assert.NotEmpty(t, page.Analyses[0].CorrelationID)
	assert.Equal(t, 1, page.Analyses[0].ValidLabCount)

	id := page.Analyses[0].ID
	w = doRequest(s, http.MethodGet, "/api/v1/analyses/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rec domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, []domain.Finding{domain.FindingNormocyticAnemia}, rec.Verdict.AnemiaPrediction)

	assert.Equal(t, http.StatusNoContent, doRequest(s, http.MethodDelete, "/api/v1/analyses/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/v1/analyses/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodDelete, "/api/v1/analyses/"+id, "").Code)

	w = doRequest(s, http.MethodGet, "/api/v1/analyses?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "limit must be an integer"))
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
