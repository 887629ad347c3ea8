package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		"Warning": LogLevelWarn,
		"INFO":    LogLevelInfo,
		"debug":   LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseLogLevel(name), "level %q", name)
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerWithCore(LogLevelWarn, core)

	logger.Error("boom %d", 1)
	logger.Warn("careful")
	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Trace("hidden")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "boom 1", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestLogger_TracePrefix(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerWithCore(LogLevelTrace, core)

	logger.Trace("row %d", 7)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[TRACE] row 7", logs.All()[0].Message)
}

func TestNewFileLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analysis.log")

	logger, closeFn, err := NewFileLogger(LogLevelInfo, path)
	require.NoError(t, err)

	logger.Info("[Pipeline] started")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[Pipeline] started")
}
