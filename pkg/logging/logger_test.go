package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
		want   zapcore.Level
	}{
		{"console default", "info", "", zapcore.InfoLevel},
		{"console debug", "debug", "console", zapcore.DebugLevel},
		{"json warn", "warn", "json", zapcore.WarnLevel},
		{"uppercase format", "error", "JSON", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			assert.False(t, logger.Core().Enabled(tt.want-1))
		})
	}
}

func TestNewLogger_InvalidInput(t *testing.T) {
	_, err := NewLogger("loud", "console")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}
