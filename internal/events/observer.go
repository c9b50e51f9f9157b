// internal/events/observer.go
package events

import (
	"context"

	"go.uber.org/zap"
)

// allTypes enumerates every event type the engine emits.
var allTypes = []EventType{
	CurveInitialized,
	TradeExecuted,
	GraduationReady,
	Graduated,
	EmergencyWithdrawal,
}

// AttachLogObserver subscribes a structured-log sink to every engine
// event type, giving the emitted stream a durable, append-only record
// even when no other observer is registered. Returns the
// subscriptions so the caller can detach.
func AttachLogObserver(bus *Bus, logger *zap.Logger) []Subscription {
	log := logger.Named("event_log")

	subs := make([]Subscription, 0, len(allTypes))
	for _, typ := range allTypes {
		subs = append(subs, bus.SubscribeFunc(typ, func(_ context.Context, event Event) error {
			log.Info("Event",
				zap.String("event_type", string(event.Type())),
				zap.Time("event_time", event.Timestamp()),
				observedFields(event))
			return nil
		}))
	}
	return subs
}

// observedFields flattens the payload of a known event into one field.
func observedFields(event Event) zap.Field {
	switch e := event.(type) {
	case CurveInitializedEvent:
		return zap.Any("payload", map[string]interface{}{
			"asset":      e.Asset.String(),
			"creator":    e.Creator.String(),
			"base_price": e.BasePrice,
			"max_supply": e.MaxSupply,
		})
	case TradeExecutedEvent:
		return zap.Any("payload", map[string]interface{}{
			"party":          e.Party.String(),
			"asset":          e.Asset.String(),
			"direction":      string(e.Direction),
			"gross_amount":   e.GrossAmount,
			"counter_amount": e.CounterAmount,
			"fee":            e.Fee,
		})
	case GraduationReadyEvent:
		return zap.Any("payload", map[string]interface{}{
			"asset":        e.Asset.String(),
			"market_sol":   e.MarketSol,
			"sol_reserves": e.SolReserves,
			"token_supply": e.TokenSupply,
		})
	case GraduatedEvent:
		return zap.Any("payload", map[string]interface{}{
			"asset":            e.Asset.String(),
			"migration_target": e.MigrationTarget,
			"sol_migrated":     e.SolMigrated,
			"tokens_migrated":  e.TokensMigrated,
		})
	case EmergencyWithdrawalEvent:
		return zap.Any("payload", map[string]interface{}{
			"asset":     e.Asset.String(),
			"amount":    e.Amount,
			"recipient": e.Recipient.String(),
		})
	default:
		return zap.Skip()
	}
}
