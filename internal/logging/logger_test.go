package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-report-server/internal/domain"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(domain.LoggingConfig{Level: tt.level})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewLoggerTo_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, domain.LoggingConfig{Level: "info", Format: "json"})

	logger.WithField("valid_labs", 3).Info("Lab analysis completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Lab analysis completed", entry["msg"])
	assert.Equal(t, float64(3), entry["valid_labs"])
}

func TestNewLoggerTo_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, domain.LoggingConfig{Level: "info", Format: "text"})

	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
