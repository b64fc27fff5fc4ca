package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { globalLogger = nil })

	WithContext(Fields{"request_id": "abc"}).Info("store resolved", Fields{"store_id": 7})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "store resolved", line["message"])
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, float64(7), line["store_id"])
	assert.Contains(t, line["caller"], "logger_test.go")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { globalLogger = nil })

	Debug("hidden")
	Info("hidden")
	assert.Empty(t, buf.String())

	Error("visible", errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}
