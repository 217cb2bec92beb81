package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	t.Run("production logs json", func(t *testing.T) {
		var buf bytes.Buffer
		log := SetupWriter(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
		WithGameID(WithRequestID(log, "r1"), "g1").Info("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "r1", line["request_id"])
		assert.Equal(t, "g1", line["game_id"])
	})

	t.Run("development logs text and honours level", func(t *testing.T) {
		var buf bytes.Buffer
		log := SetupWriter(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
		log.Info("quiet")
		WithError(log, errors.New("boom")).Warn("loud")

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "msg=loud")
		assert.Contains(t, buf.String(), "error=boom")
	})
}
