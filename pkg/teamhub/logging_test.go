package teamhub

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Debug("sending request", map[string]interface{}{
		"method":  "GET",
		"attempt": 1,
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "sending request", line["message"])
	assert.Equal(t, "GET", line["method"])
	assert.InDelta(t, 1, line["attempt"], 0)
}

func TestZerologLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Info("info msg", nil)
	logger.Warn("warn msg", nil)
	logger.Error("error msg", nil)

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"level":"error"`)
}
