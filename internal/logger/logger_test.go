package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")

	Debug("debug message")
	Info("info message")
	Warn("warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")

	// Reset for other tests
	InitWithWriter(&buf, "INFO", "text")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")

	Info("mapping added", "internalUserID", "u1", "externalUserID", "e1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mapping added", entry["msg"])
	assert.Equal(t, "u1", entry["internalUserID"])
	assert.Equal(t, "e1", entry["externalUserID"])

	InitWithWriter(&buf, "INFO", "text")
}

func TestLogger_InitRejectsInvalidValues(t *testing.T) {
	err := Init(Config{Level: "LOUD"})
	require.Error(t, err)

	err = Init(Config{Format: "xml"})
	require.Error(t, err)
}
