package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, Config{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "trees", 10)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.EqualValues(t, 10, rec["trees"])

	_, err = NewWithWriter(&buf, Config{Format: "xml"})
	assert.Error(t, err)
}

func TestBadgerAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, Config{Level: "debug"})
	require.NoError(t, err)

	bl := Badger(logger)
	bl.Infof("opening %s\n", "db")
	bl.Debugf("noise")
	assert.Zero(t, buf.Len())

	bl.Warningf("value log %d truncated\n", 3)
	assert.Contains(t, buf.String(), "value log 3 truncated")
	assert.Contains(t, buf.String(), "component=badger")
}
