package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Str("document", "itlibrary_users").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "itlibrary_users", entry["document"])
	require.Equal(t, "kept", entry["message"])
	require.Contains(t, entry, "time")
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "chatty"}, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "console"}, &buf)

	logger.Info().Msg("catalog ready")
	require.Contains(t, buf.String(), "catalog ready")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
