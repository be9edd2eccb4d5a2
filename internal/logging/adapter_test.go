package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogAdapter(t *testing.T) {
	t.Run("nil falls back to default", func(t *testing.T) {
		adapter := NewSlogAdapter(nil)
		require.NotNil(t, adapter)
		assert.NotNil(t, adapter.Logger())
	})

	t.Run("wraps given logger", func(t *testing.T) {
		logger := slog.Default()
		assert.Same(t, logger, NewSlogAdapter(logger).Logger())
	})
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Debug("d", "k", 1)
	adapter.Info("i")
	adapter.Warn("w")
	adapter.Error("e")

	out := buf.String()
	for _, lvl := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		assert.Contains(t, out, "level="+lvl)
	}
}

func TestDiscard(t *testing.T) {
	var l Logger = Discard()
	assert.NotPanics(t, func() { l.Info("nothing") })
}
