package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromString("DEBUG"))
	assert.Equal(t, slog.LevelWarn, LevelFromString("warning"))
	assert.Equal(t, slog.LevelError, LevelFromString(" error "))
	assert.Equal(t, slog.LevelInfo, LevelFromString("verbose"))
}

func TestComponentTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter(&buf, "info"), "taxonomy")
	logger.Info("ancestry cycle", "node", "n1")
	assert.Contains(t, buf.String(), `"component":"taxonomy"`)
	assert.Contains(t, buf.String(), `"node":"n1"`)

	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
