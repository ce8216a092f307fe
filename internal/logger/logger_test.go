package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithOptions(Options{Env: "production", Level: level, Output: &buf}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production", "test"} {
		t.Run(env, func(t *testing.T) {
			log := New(env)
			require.NotNil(t, log)
			assert.NotNil(t, log.GetZerolog())
		})
	}
}

func TestNewWithOptions_JSONOutput(t *testing.T) {
	log, buf := newBuffered("info")

	log.Info("Dashboard data loaded", map[string]interface{}{
		"locations": 12,
		"problems":  40,
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Dashboard data loaded", entry["message"])
	assert.EqualValues(t, 12, entry["locations"])
	assert.EqualValues(t, 40, entry["problems"])
	assert.Contains(t, entry, "time")
}

func TestNewWithOptions_DevelopmentConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Env: "development", Output: &buf})

	log.Debug("Processing problem query", map[string]interface{}{"sort_by": "priority"})

	out := buf.String()
	assert.Contains(t, out, "Processing problem query")
	assert.Contains(t, out, "sort_by=priority")
	assert.NotContains(t, out, "\x1b[", "console output to a buffer is uncolored")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		env   string
		want  zerolog.Level
	}{
		{"", "development", zerolog.DebugLevel},
		{"", "production", zerolog.InfoLevel},
		{"warn", "development", zerolog.WarnLevel},
		{"ERROR", "production", zerolog.ErrorLevel},
		{"debug", "production", zerolog.DebugLevel},
		{"chatty", "production", zerolog.InfoLevel},
		{"chatty", "development", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level, tt.env))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBuffered("warn")

	log.Debug("cache hit", nil)
	log.Info("cache miss", nil)
	assert.Empty(t, buf.String())

	log.Warn("Problem does not match any location", map[string]interface{}{"key": "utrecht - neude"})
	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "utrecht - neude", entry["key"])
}

func TestError(t *testing.T) {
	log, buf := newBuffered("info")

	log.Error("Dashboard load failed", errors.New("list items: backend returned status 503"), map[string]interface{}{
		"collection": "problems",
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "list items: backend returned status 503", entry["error"])
	assert.Equal(t, "problems", entry["collection"])
}

func TestChildLoggers(t *testing.T) {
	t.Run("With adds fields", func(t *testing.T) {
		log, buf := newBuffered("info")

		log.With(map[string]interface{}{"backend": "sharepoint"}).Info("Backend selected", nil)

		assert.Equal(t, "sharepoint", decodeLine(t, buf)["backend"])
	})

	t.Run("Component tags the emitter", func(t *testing.T) {
		log, buf := newBuffered("info")

		log.Component("dashboard_cache").Info("Cache invalidated", nil)

		assert.Equal(t, "dashboard_cache", decodeLine(t, buf)["component"])
	})

	t.Run("WithRequestID", func(t *testing.T) {
		log, buf := newBuffered("info")

		log.WithRequestID("req-12345").Info("request received", nil)

		assert.Equal(t, "req-12345", decodeLine(t, buf)["request_id"])
	})

	t.Run("children do not leak fields into the parent", func(t *testing.T) {
		log, buf := newBuffered("info")

		_ = log.Component("admin")
		log.Info("plain", nil)

		assert.NotContains(t, decodeLine(t, buf), "component")
	})
}

func TestNop(t *testing.T) {
	log := Nop()

	assert.NotPanics(t, func() {
		log.Info("discarded", map[string]interface{}{"key": "value"})
		log.Component("x").Error("discarded", errors.New("boom"), nil)
	})
}

func TestNilFields(t *testing.T) {
	log, buf := newBuffered("info")

	log.Info("message with nil fields", nil)

	assert.True(t, strings.Contains(buf.String(), "message with nil fields"))
}
