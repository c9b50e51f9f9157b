package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/curve-engine/internal/config"
	"github.com/rovshanmuradov/curve-engine/internal/events"
)

func newRunnerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ListenAddr:      ":0",
		FeeCollector:    "11111111111111111111111111111111",
		EventBufferSize: 16,
		LogFile:         filepath.Join(t.TempDir(), "curved.log"),
	}
}

func TestNewRunnerAssemblesEngine(t *testing.T) {
	runner, err := NewRunner(newRunnerConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, runner.Service())
	assert.NotNil(t, runner.Ledger())
	assert.NotNil(t, runner.Logger())
}

func TestRunnerDeliversEventsToLogObserver(t *testing.T) {
	cfg := newRunnerConfig(t)
	runner, err := NewRunner(cfg)
	require.NoError(t, err)

	require.NoError(t, runner.bus.PublishSync(context.Background(), events.TradeExecutedEvent{
		BaseEvent: events.NewBase(events.TradeExecuted),
		Direction: events.DirectionBuy,
	}))

	// The assembled bus has a log observer attached, so the published
	// event lands in the JSON log file.
	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), string(events.TradeExecuted))
}
