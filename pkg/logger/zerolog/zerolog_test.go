package zerolog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/raykavin/backsim/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		_, err := New(Config{Level: "loud"})
		require.Error(t, err)
	})

	t.Run("json output with fields", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "debug", JSON: true, Output: &buf})
		require.NoError(t, err)

		log.WithFields(map[string]any{"fee": decimal.RequireFromString("0.24")}).
			WithField("order", 7).
			Info("placed")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "placed", entry["message"])
		require.Equal(t, "0.24", entry["fee"])
		require.Equal(t, "7", entry["order"])
	})

	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "warn", JSON: true, Output: &buf})
		require.NoError(t, err)

		log.Info("hidden")
		require.Zero(t, buf.Len())

		log.SetLevel(logger.DebugLevel)
		require.Equal(t, logger.DebugLevel, log.GetLevel())
	})
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("nothing")
	require.Equal(t, logger.Disabled, log.GetLevel())
}
