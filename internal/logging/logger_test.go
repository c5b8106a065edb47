package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Level: slog.LevelInfo})
	logger.Info("boom", "error", "bad")
	assert.Contains(t, buf.String(), "err=bad")
	assert.NotContains(t, buf.String(), "error=")
}

func TestOpen_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "buddy.log")
	logger, closer, err := Open(Options{Level: slog.LevelDebug, File: path, JSON: true})
	require.NoError(t, err)

	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
