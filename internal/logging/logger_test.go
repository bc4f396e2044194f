package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("scanner", &buf, INFO)

	logger.Debug("не должно попасть")
	logger.Info("скан %d", 1)
	logger.Warn("лимит")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[INFO] [scanner] скан 1")
	assert.Contains(t, out, "[WARN] [scanner] лимит")
}

func TestNilLogger_IsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("ничего")
		logger.Error("ничего")
		_ = logger.Close()
	})
	assert.Equal(t, "", logger.Component())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("logs")

	logger, err := NewLogger("test")
	require.NoError(t, err)
	logger.Trace("в файл")
	require.NoError(t, logger.Close())
}

func TestLoggerManager_ComponentAndLevel(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger), level: INFO, fileless: true}

	scanner := lm.Component("scanner")
	assert.Same(t, scanner, lm.Component("scanner"))
	assert.Equal(t, "scanner", scanner.Component())
	assert.Equal(t, INFO, scanner.minConsoleLevel)

	lm.SetLevel(DEBUG)
	assert.Equal(t, DEBUG, scanner.minConsoleLevel)
	assert.Equal(t, DEBUG, lm.Component("app").minConsoleLevel, "новые компоненты получают текущий уровень")

	require.NoError(t, lm.Close())
	assert.NotSame(t, scanner, lm.Component("scanner"))
}
