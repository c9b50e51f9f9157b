// internal/engine/executor.go
package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/events"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
)

// feeDivisor yields the flat 1% protocol fee: fee = amount/100, floored.
const feeDivisor = 100

// TradeResult reports the applied side of a trade: tokens minted and
// fee for a buy, lamports released and fee for a sell.
type TradeResult struct {
	CounterAmount uint64
	Fee           uint64
}

// Executor validates and applies buy/sell requests against a curve.
// It evaluates every check before performing any side effect, so a
// rejected trade leaves both the curve counters and the ledger
// untouched. The caller must hold the curve's exclusive lock.
type Executor struct {
	ledger ledger.Ledger
	bus    *events.Bus
	logger *zap.Logger
}

// NewExecutor creates a trade executor bound to the engine's ledger session.
func NewExecutor(l ledger.Ledger, bus *events.Bus, logger *zap.Logger) *Executor {
	return &Executor{
		ledger: l,
		bus:    bus,
		logger: logger.Named("executor"),
	}
}

// Buy spends lamportsIn against the curve and mints the quoted token
// quantity to the buyer. The 1% fee is taken off the top, the net
// value is quoted through the discretized curve integral, and the
// result is rejected if it violates the buyer's slippage bound or the
// supply cap.
func (e *Executor) Buy(ctx context.Context, c *curve.State, buyer solana.PublicKey, lamportsIn, minTokensOut uint64) (*TradeResult, error) {
	if c.Graduated {
		return nil, curve.ErrCurveGraduated
	}
	if lamportsIn == 0 {
		return nil, curve.ErrInvalidAmount
	}

	fee := lamportsIn / feeDivisor
	lamportsAfterFee := lamportsIn - fee

	tokens, err := curve.QuoteBuy(c.TokenSupply, c.MaxSupply, c.BasePrice, lamportsAfterFee)
	if err != nil {
		return nil, err
	}

	if tokens < minTokensOut {
		return nil, curve.ErrSlippageExceeded
	}
	newSupply := c.TokenSupply + tokens
	if newSupply < c.TokenSupply || newSupply > c.MaxSupply {
		return nil, curve.ErrMaxSupplyExceeded
	}

	// Pre-check the buyer's funds so the ledger call sequence below
	// cannot fail halfway through.
	balance, err := e.ledger.Balance(ctx, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to read buyer balance: %w", err)
	}
	if balance < lamportsIn {
		return nil, ledger.ErrInsufficientFunds
	}

	if err := e.ledger.MoveValue(ctx, buyer, c.Vault, lamportsAfterFee); err != nil {
		return nil, fmt.Errorf("failed to move value to vault: %w", err)
	}
	if err := e.ledger.MoveValue(ctx, buyer, c.FeeCollector, fee); err != nil {
		return nil, fmt.Errorf("failed to move fee: %w", err)
	}
	if err := e.ledger.IssueAsset(ctx, c.Asset, buyer, tokens); err != nil {
		return nil, fmt.Errorf("failed to issue asset: %w", err)
	}

	c.TokenSupply += tokens
	c.SolReserves += lamportsAfterFee

	e.logger.Info("Buy executed",
		zap.String("asset", c.Asset.String()),
		zap.String("buyer", buyer.String()),
		zap.Uint64("lamports_in", lamportsIn),
		zap.Uint64("tokens_out", tokens),
		zap.Uint64("fee", fee))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:     events.NewBase(events.TradeExecuted),
		Party:         buyer,
		Asset:         c.Asset,
		Direction:     events.DirectionBuy,
		GrossAmount:   lamportsIn,
		CounterAmount: tokens,
		Fee:           fee,
	})

	return &TradeResult{CounterAmount: tokens, Fee: fee}, nil
}

// Sell retires tokenAmount from the seller and releases the quoted
// lamport value from the vault, net of the 1% fee. Solvency is checked
// against the full gross payout before the fee split.
func (e *Executor) Sell(ctx context.Context, c *curve.State, seller solana.PublicKey, tokenAmount, minLamportsOut uint64) (*TradeResult, error) {
	if c.Graduated {
		return nil, curve.ErrCurveGraduated
	}
	if tokenAmount == 0 {
		return nil, curve.ErrInvalidAmount
	}
	if tokenAmount > c.TokenSupply {
		return nil, curve.ErrInsufficientSupply
	}

	lamportsGross, err := curve.QuoteSell(c.TokenSupply, c.MaxSupply, c.BasePrice, tokenAmount)
	if err != nil {
		return nil, err
	}

	fee := lamportsGross / feeDivisor
	lamportsAfterFee := lamportsGross - fee

	if lamportsAfterFee < minLamportsOut {
		return nil, curve.ErrSlippageExceeded
	}
	if lamportsGross > c.SolReserves {
		return nil, curve.ErrInsufficientReserves
	}

	held, err := e.ledger.TokenBalance(ctx, c.Asset, seller)
	if err != nil {
		return nil, fmt.Errorf("failed to read seller token balance: %w", err)
	}
	if held < tokenAmount {
		return nil, ledger.ErrInsufficientTokens
	}

	if err := e.ledger.RetireAsset(ctx, c.Asset, seller, tokenAmount); err != nil {
		return nil, fmt.Errorf("failed to retire asset: %w", err)
	}
	if err := e.ledger.MoveValue(ctx, c.Vault, seller, lamportsAfterFee); err != nil {
		return nil, fmt.Errorf("failed to release value to seller: %w", err)
	}
	if err := e.ledger.MoveValue(ctx, c.Vault, c.FeeCollector, fee); err != nil {
		return nil, fmt.Errorf("failed to move fee: %w", err)
	}

	c.TokenSupply -= tokenAmount
	c.SolReserves -= lamportsGross

	e.logger.Info("Sell executed",
		zap.String("asset", c.Asset.String()),
		zap.String("seller", seller.String()),
		zap.Uint64("tokens_in", tokenAmount),
		zap.Uint64("lamports_out", lamportsAfterFee),
		zap.Uint64("fee", fee))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:     events.NewBase(events.TradeExecuted),
		Party:         seller,
		Asset:         c.Asset,
		Direction:     events.DirectionSell,
		GrossAmount:   tokenAmount,
		CounterAmount: lamportsAfterFee,
		Fee:           fee,
	})

	return &TradeResult{CounterAmount: lamportsAfterFee, Fee: fee}, nil
}

func (e *Executor) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
