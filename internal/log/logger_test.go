package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: InfoLevel, JSONOutput: true, Output: &buf})

	l.Info("extracted", "file", "rtl/top.sv", "modules", 3)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "extracted", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "rtl/top.sv", entries[0]["file"])
	assert.Equal(t, float64(3), entries[0]["modules"])
	assert.Contains(t, entries[0], "timestamp")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: WarnLevel, JSONOutput: true, Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")
	assert.Len(t, decodeLines(t, &buf), 2)

	buf.Reset()
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: DebugLevel, Output: &buf})

	l.Warn("unresolved instance", "module", "vendor_ram")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "unresolved instance")
	assert.Contains(t, out, "vendor_ram")
	assert.NotContains(t, out, "\x1b[", "no colors outside a terminal")
}

func TestSetJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: InfoLevel, Output: &buf})

	l.SetJSONOutput(true)
	l.Info("switched")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "switched", entries[0]["message"])
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	parent := New(LoggerConfig{Level: InfoLevel, JSONOutput: true, Output: &buf})
	child := parent.With("run_id", "abc")

	child.Info("stage done", "stage", "flatten")
	parent.Info("no run id")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0]["run_id"])
	assert.Equal(t, "flatten", entries[0]["stage"])
	assert.NotContains(t, entries[1], "run_id")

	// level is shared
	parent.SetLevel(ErrorLevel)
	buf.Reset()
	child.Info("filtered")
	assert.Empty(t, buf.String())
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestDefaultAndNop(t *testing.T) {
	assert.Same(t, Default(), Default())

	var l Logger = Nop()
	l.Error("discarded")
}
