// internal/engine/graduation.go
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/events"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
	"github.com/rovshanmuradov/curve-engine/internal/migration"
)

// GraduationThresholdSol is the reserve level, in whole SOL, at which
// a curve leaves curve-priced trading. 690 SOL approximates the $69K
// target market cap at a hardcoded unit price; production use needs a
// price oracle instead.
const GraduationThresholdSol = 690

// MigrationHandle is the frozen-liquidity handoff returned by Migrate.
type MigrationHandle struct {
	Pool        string
	SolAmount   uint64
	TokenAmount uint64
}

// GraduationController evaluates the graduation threshold and drives
// the one-way Active→Graduated transition, plus the post-graduation
// reads (migration handoff, emergency withdrawal). The caller must
// hold the curve's exclusive lock.
type GraduationController struct {
	ledger   ledger.Ledger
	migrator migration.Migrator
	bus      *events.Bus
	logger   *zap.Logger
}

// NewGraduationController wires the controller to its collaborators.
func NewGraduationController(l ledger.Ledger, m migration.Migrator, bus *events.Bus, logger *zap.Logger) *GraduationController {
	return &GraduationController{
		ledger:   l,
		migrator: m,
		bus:      bus,
		logger:   logger.Named("graduation"),
	}
}

// CheckAndGraduate flips the curve to its graduated state once
// reserves reach the threshold. A second invocation on a graduated
// curve fails closed with ErrAlreadyGraduated; a below-threshold curve
// is left unchanged.
func (g *GraduationController) CheckAndGraduate(ctx context.Context, c *curve.State) error {
	if c.Graduated {
		return curve.ErrAlreadyGraduated
	}

	marketSol := c.SolReserves / curve.LamportsPerSol
	if marketSol < GraduationThresholdSol {
		return curve.ErrThresholdNotReached
	}

	c.Graduated = true

	g.logger.Info("Curve graduated",
		zap.String("asset", c.Asset.String()),
		zap.Uint64("market_sol", marketSol),
		zap.Uint64("sol_reserves", c.SolReserves),
		zap.Uint64("token_supply", c.TokenSupply))

	g.publish(events.GraduationReadyEvent{
		BaseEvent:   events.NewBase(events.GraduationReady),
		Asset:       c.Asset,
		MarketSol:   marketSol,
		SolReserves: c.SolReserves,
		TokenSupply: c.TokenSupply,
	})

	return nil
}

// Migrate hands the graduated curve's final reserves and supply to the
// migration collaborator and returns the resulting pool handle. The
// curve record itself is frozen; this is a read plus a handoff.
func (g *GraduationController) Migrate(ctx context.Context, c *curve.State) (*MigrationHandle, error) {
	if !c.Graduated {
		return nil, curve.ErrNotGraduated
	}

	pool, err := g.migrator.CreatePool(ctx, c.Asset, c.SolReserves, c.TokenSupply)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration pool: %w", err)
	}

	g.logger.Info("Liquidity migrated",
		zap.String("asset", c.Asset.String()),
		zap.String("pool", pool),
		zap.Uint64("sol_migrated", c.SolReserves),
		zap.Uint64("tokens_migrated", c.TokenSupply))

	g.publish(events.GraduatedEvent{
		BaseEvent:       events.NewBase(events.Graduated),
		Asset:           c.Asset,
		MigrationTarget: pool,
		SolMigrated:     c.SolReserves,
		TokensMigrated:  c.TokenSupply,
	})

	return &MigrationHandle{
		Pool:        pool,
		SolAmount:   c.SolReserves,
		TokenAmount: c.TokenSupply,
	}, nil
}

// EmergencyWithdraw releases the graduated curve's recorded reserves
// from the vault to the creator. Nothing marks reserves as already
// withdrawn; a repeated call is stopped only by the vault's own
// insufficient-funds failure.
func (g *GraduationController) EmergencyWithdraw(ctx context.Context, c *curve.State) (uint64, error) {
	if !c.Graduated {
		return 0, curve.ErrNotGraduated
	}

	amount := c.SolReserves
	if err := g.ledger.MoveValue(ctx, c.Vault, c.Creator, amount); err != nil {
		return 0, fmt.Errorf("failed to release reserves: %w", err)
	}

	g.logger.Warn("Emergency withdrawal",
		zap.String("asset", c.Asset.String()),
		zap.Uint64("amount", amount),
		zap.String("recipient", c.Creator.String()))

	g.publish(events.EmergencyWithdrawalEvent{
		BaseEvent: events.NewBase(events.EmergencyWithdrawal),
		Asset:     c.Asset,
		Amount:    amount,
		Recipient: c.Creator,
	})

	return amount, nil
}

func (g *GraduationController) publish(event events.Event) {
	if g.bus == nil {
		return
	}
	if err := g.bus.Publish(event); err != nil {
		g.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
