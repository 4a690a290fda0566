package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BESTMUA_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel(Options{}))
	assert.Equal(t, zerolog.DebugLevel, getLogLevel(Options{Verbose: true}))

	t.Setenv("BESTMUA_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel(Options{}))

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel(Options{}))
	assert.Equal(t, zerolog.ErrorLevel, getLogLevel(Options{Level: "error"}))
	assert.Equal(t, zerolog.InfoLevel, getLogLevel(Options{Level: "loud"}))
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := New(&buf).WithFields(Fields{"run_id": "abc"}).WithField("component", "store")

	l.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["run_id"])
	assert.Equal(t, "store", line["component"])
	assert.Equal(t, "hello", line["message"])
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Msg("nothing")
	})
}
