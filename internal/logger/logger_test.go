package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	log.Debug().Str("k", "v").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "storefront", line["service"])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })
	assert.Equal(t, zerolog.WarnLevel, SetLevel("WARN"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	assert.Equal(t, zerolog.InfoLevel, SetLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, SetLevel(""))

	var buf bytes.Buffer
	log := New(&buf, "error", "json")
	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
}
