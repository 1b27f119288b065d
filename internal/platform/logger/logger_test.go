package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		var buf bytes.Buffer
		newWithWriter(&buf, "", "info").Info("visitor approved", "request_id", "r-1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "visitor approved", line["msg"])
		assert.Equal(t, "r-1", line["request_id"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		newWithWriter(&buf, "text", "warn").Info("dropped")
		assert.Empty(t, buf.String())
	})
}
