package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithCode(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)
	t.Cleanup(func() { logger.SetLogLevel(logger.WarnLevel) })

	var buf bytes.Buffer
	log := logger.New(&buf)

	err := errors.New().WithData(errors.ErrInvalidConfig, "window")
	log.ErrorWithCode(err).Msg("config rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "invalid_configuration", entry["error_code"])
	assert.Equal(t, "config rejected", entry["message"])
}

func TestParseLevel(t *testing.T) {
	level, ok := logger.ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, logger.WarnLevel, level)

	level, ok = logger.ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, logger.DebugLevel, level)

	_, ok = logger.ParseLevel("loud")
	assert.False(t, ok)
}

func TestNopDiscards(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() {
		log.Info().Int("fps", 60).Msg("ignored")
	})
}
