package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_NormalizesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, FormatJSON)
	logger.Error("boom", "error", errors.New("bad"))

	assert.Contains(t, buf.String(), `"err":"bad"`)
	assert.NotContains(t, buf.String(), `"error":`)
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, FormatText)
	logger.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
