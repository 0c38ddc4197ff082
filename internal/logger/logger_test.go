package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel)

	log.Info("query executed", String("op", "ASSOC GET"), Int("rows", 3))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "query executed", entry["message"])
	assert.Equal(t, "ASSOC GET", entry["op"])
	assert.Equal(t, float64(3), entry["rows"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, WarnLevel)

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Zero(t, buf.Len())

	log.Error("shown", Error(errors.New("boom")))
	entry := lastEntry(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel).WithFields(String("request_id", "abc"))

	log.Info("handling")
	entry := lastEntry(t, &buf)
	assert.Equal(t, "abc", entry["request_id"])
}
