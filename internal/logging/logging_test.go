package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewKeepsWarningsAndErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("step")
	logger.Info("store sanitized")
	logger.Warn("journal unavailable", zap.String("path", "/tmp/journal.db"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "journal unavailable", entry["msg"])
	require.Equal(t, "/tmp/journal.db", entry["path"])
	require.Contains(t, entry, "ts")
}

func TestNewVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("opening store")
	logger.Info("store sanitized", zap.Int64("deleted", 3))
	require.NoError(t, logger.Sync())

	out := buf.String()
	require.Contains(t, out, "opening store")
	require.Contains(t, out, "store sanitized")
	require.Contains(t, out, `"deleted": 3`)
	require.NotContains(t, out, `"msg"`)
}
