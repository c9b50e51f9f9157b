package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogObserverCoversAllEventTypes(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer shutdownBus(t, bus)

	core, logs := observer.New(zap.InfoLevel)
	subs := AttachLogObserver(bus, zap.New(core))
	require.Len(t, subs, len(allTypes))

	published := []Event{
		CurveInitializedEvent{BaseEvent: NewBase(CurveInitialized)},
		TradeExecutedEvent{BaseEvent: NewBase(TradeExecuted), Direction: DirectionBuy},
		GraduationReadyEvent{BaseEvent: NewBase(GraduationReady)},
		GraduatedEvent{BaseEvent: NewBase(Graduated), MigrationTarget: "pool-1"},
		EmergencyWithdrawalEvent{BaseEvent: NewBase(EmergencyWithdrawal)},
	}
	for _, e := range published {
		require.NoError(t, bus.PublishSync(context.Background(), e))
	}

	entries := logs.All()
	require.Len(t, entries, len(published))

	seen := make(map[string]bool)
	for _, entry := range entries {
		fields := entry.ContextMap()
		seen[fields["event_type"].(string)] = true
		assert.Contains(t, fields, "payload")
	}
	for _, typ := range allTypes {
		assert.True(t, seen[string(typ)], "no log entry for %s", typ)
	}
}

func TestLogObserverDetach(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer shutdownBus(t, bus)

	core, logs := observer.New(zap.InfoLevel)
	subs := AttachLogObserver(bus, zap.New(core))
	for _, sub := range subs {
		sub.Unsubscribe()
	}

	require.NoError(t, bus.PublishSync(context.Background(), TradeExecutedEvent{
		BaseEvent: NewBase(TradeExecuted),
	}))
	assert.Zero(t, logs.Len())
}
