// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// Curve lifecycle events
	CurveInitialized EventType = "curve.initialized"
	TradeExecuted    EventType = "trade.executed"

	// Graduation events
	GraduationReady     EventType = "graduation.ready"
	Graduated           EventType = "graduation.completed"
	EmergencyWithdrawal EventType = "graduation.emergency_withdrawal"
)

// TradeDirection distinguishes the two sides of a curve trade.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

// CurveInitializedEvent is emitted once per asset at curve creation.
type CurveInitializedEvent struct {
	BaseEvent
	Asset     solana.PublicKey
	Creator   solana.PublicKey
	BasePrice uint64
	MaxSupply uint64
}

// TradeExecutedEvent is emitted after every applied buy or sell.
type TradeExecutedEvent struct {
	BaseEvent
	Party         solana.PublicKey
	Asset         solana.PublicKey
	Direction     TradeDirection
	GrossAmount   uint64 // lamports in on buy, tokens in on sell
	CounterAmount uint64 // tokens out on buy, lamports out on sell
	Fee           uint64
}

// GraduationReadyEvent is emitted when the threshold check flips the
// curve into its graduated state.
type GraduationReadyEvent struct {
	BaseEvent
	Asset       solana.PublicKey
	MarketSol   uint64
	SolReserves uint64
	TokenSupply uint64
}

// GraduatedEvent is emitted after the frozen reserves are handed to
// the migration collaborator.
type GraduatedEvent struct {
	BaseEvent
	Asset           solana.PublicKey
	MigrationTarget string
	SolMigrated     uint64
	TokensMigrated  uint64
}

// EmergencyWithdrawalEvent records a post-graduation reserve release.
type EmergencyWithdrawalEvent struct {
	BaseEvent
	Asset     solana.PublicKey
	Amount    uint64
	Recipient solana.PublicKey
}
