package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, "warn")

	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "shown", ev["message"])
	assert.Equal(t, "v", ev["k"])
	assert.Contains(t, ev, "time")
}

func TestBuildUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, "chatty")
	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
