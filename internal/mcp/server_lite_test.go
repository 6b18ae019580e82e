package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-report-server/internal/config"
	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/history"
)

func newTestLiteServer(t *testing.T, historyEnabled bool) *LiteServer {
	t.Helper()

	cfg := &config.LiteConfig{
		DataDir:        t.TempDir(),
		HistoryEnabled: historyEnabled,
		LogLevel:       "debug",
		LogFormat:      "json",
	}
	logger, _ := test.NewNullLogger()

	server, err := NewLiteServer(cfg, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewLiteServer(t *testing.T) {
	server := newTestLiteServer(t, false)

	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.analyzer)
	assert.Nil(t, server.history)
}

func TestNewLiteServer_NilConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	t.Setenv("HOME", t.TempDir())

	server, err := NewLiteServer(nil, WithLogger(logger))
	require.NoError(t, err)
	assert.NotNil(t, server.config)
	assert.NoError(t, server.Close())
}

func TestNewLiteServer_HistoryEnabled(t *testing.T) {
	server := newTestLiteServer(t, true)

	require.NotNil(t, server.history)
	assert.True(t, server.ownsStore)
	assert.FileExists(t, server.config.HistoryDBPath())
}

func TestHandleAnalyzeLabs(t *testing.T) {
	server := newTestLiteServer(t, false)

	params := AnalyzeLabsParams{
		PatientInfo: map[string]any{"Name": "Sara", "Age": 34, "Gender": "F"},
		Labs:        map[string]any{"HGB": 10.5, "WBC": "12", "LDL": 130},
	}
	result, _, err := server.handleAnalyzeLabs(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp domain.AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))

	require.NotNil(t, resp.RawResults)
	assert.True(t, resp.RawResults.HasValidLabs)
	assert.Equal(t, 2, resp.RawResults.ValidLabCount)
	assert.True(t, resp.RawResults.HasCBC)
	assert.True(t, resp.RawResults.HasInfection)
	assert.Contains(t, resp.ReportEn, "Sara")
	assert.Contains(t, resp.ReportAr, "Sara")
}

func TestHandleAnalyzeLabs_EmptyArguments(t *testing.T) {
	server := newTestLiteServer(t, false)

	result, _, err := server.handleAnalyzeLabs(context.Background(), nil, AnalyzeLabsParams{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp domain.AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.False(t, resp.RawResults.HasValidLabs)
	assert.NotEmpty(t, resp.ReportEn)
}

func TestHandleAnalyzeLabs_NonObjectLabs(t *testing.T) {
	server := newTestLiteServer(t, false)

	result, _, err := server.handleAnalyzeLabs(context.Background(), nil, AnalyzeLabsParams{Labs: "HGB=10"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp domain.AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 0, resp.RawResults.ValidLabCount)
}

func TestHandleListAnalyses_HistoryDisabled(t *testing.T) {
	server := newTestLiteServer(t, false)

	result, _, err := server.handleListAnalyses(context.Background(), nil, ListAnalysesParams{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), domain.MsgHistoryDisabled)
}

func TestHandleListAnalyses(t *testing.T) {
	server := newTestLiteServer(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, _, err := server.handleAnalyzeLabs(ctx, nil, AnalyzeLabsParams{
			PatientInfo: map[string]any{"Name": "Sara"},
			Labs:        map[string]any{"Creatinine": 2.1},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
	}

	result, _, err := server.handleListAnalyses(ctx, nil, ListAnalysesParams{Limit: 2})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.NotContains(t, text, "Sara")

	var list ListAnalysesResult
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, 0, list.Offset)
	require.Len(t, list.Analyses, 2)
	for _, rec := range list.Analyses {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.CorrelationID)
		assert.Equal(t, 1, rec.ValidLabCount)
		require.NotNil(t, rec.Verdict)
		assert.True(t, rec.Verdict.HasKidney)
	}
}

func TestHandleListAnalyses_DefaultPage(t *testing.T) {
	server := newTestLiteServer(t, true)

	result, _, err := server.handleListAnalyses(context.Background(), nil, ListAnalysesParams{Limit: -1, Offset: -5})
	require.NoError(t, err)

	var list ListAnalysesResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
	assert.Equal(t, history.DefaultListLimit, list.Limit)
	assert.Equal(t, 0, list.Offset)
	assert.Empty(t, list.Analyses)
	assert.Zero(t, list.Total)
}

func TestWithHistoryStore(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer store.Close()

	logger, _ := test.NewNullLogger()
	server, err := NewLiteServer(&config.LiteConfig{DataDir: t.TempDir()}, WithLogger(logger), WithHistoryStore(store))
	require.NoError(t, err)

	_, _, err = server.handleAnalyzeLabs(context.Background(), nil, AnalyzeLabsParams{Labs: map[string]any{"FastingGlucose": 130}})
	require.NoError(t, err)

	// The server does not own an injected store.
	require.NoError(t, server.Close())
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
