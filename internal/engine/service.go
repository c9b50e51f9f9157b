// internal/engine/service.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/events"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
	"github.com/rovshanmuradov/curve-engine/internal/metrics"
	"github.com/rovshanmuradov/curve-engine/internal/migration"
	"github.com/rovshanmuradov/curve-engine/internal/storage"
	"github.com/rovshanmuradov/curve-engine/internal/storage/models"
)

var (
	ErrCurveNotFound = errors.New("curve not found")
	ErrCurveExists   = errors.New("curve already initialized")
)

// curveEntry pairs a curve with its exclusive lock. Every buy, sell
// and graduation operation on the asset runs under this lock, so
// read-then-write sequences on the supply/reserve pair never race.
type curveEntry struct {
	mu    sync.Mutex
	state *curve.State
}

// Service owns the curve registry and is the only entry point for
// mutating curve state. Different curves are fully independent and
// processed in parallel; operations on one curve are serialized.
type Service struct {
	mu     sync.RWMutex
	curves map[solana.PublicKey]*curveEntry

	executor   *Executor
	graduation *GraduationController
	ledger     ledger.Ledger
	bus        *events.Bus
	store      storage.Storage
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// ServiceConfig collects the Service's collaborators. Store and
// Metrics may be nil; persistence and instrumentation are then
// disabled.
type ServiceConfig struct {
	Ledger   ledger.Ledger
	Migrator migration.Migrator
	Bus      *events.Bus
	Store    storage.Storage
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewService wires the trade executor and graduation controller into a
// curve registry.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger.Named("engine")
	return &Service{
		curves:     make(map[solana.PublicKey]*curveEntry),
		executor:   NewExecutor(cfg.Ledger, cfg.Bus, logger),
		graduation: NewGraduationController(cfg.Ledger, cfg.Migrator, cfg.Bus, logger),
		ledger:     cfg.Ledger,
		bus:        cfg.Bus,
		store:      cfg.Store,
		metrics:    cfg.Metrics,
		logger:     logger,
	}
}

// InitializeCurve validates the parameters, creates the curve record
// and registers its vault. Called once per asset by the issuance
// collaborator.
func (s *Service) InitializeCurve(ctx context.Context, asset, creator, feeCollector solana.PublicKey, basePrice, maxSupply uint64) (*curve.State, error) {
	state, err := curve.NewState(asset, creator, feeCollector, basePrice, maxSupply)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.RegisterVault(ctx, state.Vault); err != nil {
		return nil, fmt.Errorf("failed to register vault: %w", err)
	}

	s.mu.Lock()
	if _, exists := s.curves[asset]; exists {
		s.mu.Unlock()
		return nil, ErrCurveExists
	}
	s.curves[asset] = &curveEntry{state: state}
	s.mu.Unlock()

	s.logger.Info("Curve initialized",
		zap.String("asset", asset.String()),
		zap.String("creator", creator.String()),
		zap.Uint64("base_price", basePrice),
		zap.Uint64("max_supply", maxSupply))

	if s.bus != nil {
		_ = s.bus.Publish(events.CurveInitializedEvent{
			BaseEvent: events.NewBase(events.CurveInitialized),
			Asset:     asset,
			Creator:   creator,
			BasePrice: basePrice,
			MaxSupply: maxSupply,
		})
	}

	if s.store != nil {
		if err := s.store.SaveCurve(ctx, curveModel(state)); err != nil {
			s.logger.Error("Failed to persist curve", zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.SetReserves(asset.String(), 0)
	}

	return state, nil
}

// Restore re-registers a previously persisted curve, e.g. on restart.
func (s *Service) Restore(ctx context.Context, state *curve.State) error {
	if err := s.ledger.RegisterVault(ctx, state.Vault); err != nil {
		return fmt.Errorf("failed to register vault: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.curves[state.Asset]; exists {
		return ErrCurveExists
	}
	s.curves[state.Asset] = &curveEntry{state: state}
	return nil
}

// Buy executes a buy under the curve's exclusive lock.
func (s *Service) Buy(ctx context.Context, asset, buyer solana.PublicKey, lamportsIn, minTokensOut uint64) (*TradeResult, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res, err := s.executor.Buy(ctx, entry.state, buyer, lamportsIn, minTokensOut)
	if s.metrics != nil {
		var fee uint64
		if res != nil {
			fee = res.Fee
		}
		s.metrics.ObserveTrade(string(events.DirectionBuy), err, fee)
	}
	if err != nil {
		return nil, err
	}

	s.afterTrade(ctx, entry.state, buyer, events.DirectionBuy, lamportsIn, res)
	return res, nil
}

// Sell executes a sell under the curve's exclusive lock.
func (s *Service) Sell(ctx context.Context, asset, seller solana.PublicKey, tokenAmount, minLamportsOut uint64) (*TradeResult, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res, err := s.executor.Sell(ctx, entry.state, seller, tokenAmount, minLamportsOut)
	if s.metrics != nil {
		var fee uint64
		if res != nil {
			fee = res.Fee
		}
		s.metrics.ObserveTrade(string(events.DirectionSell), err, fee)
	}
	if err != nil {
		return nil, err
	}

	s.afterTrade(ctx, entry.state, seller, events.DirectionSell, tokenAmount, res)
	return res, nil
}

// CheckAndGraduate evaluates the graduation threshold under the
// curve's exclusive lock.
func (s *Service) CheckAndGraduate(ctx context.Context, asset solana.PublicKey) error {
	entry, err := s.entry(asset)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.graduation.CheckAndGraduate(ctx, entry.state); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.Graduations.Inc()
	}
	s.persistUpdate(ctx, entry.state)
	return nil
}

// Migrate hands the graduated curve's liquidity to the migration collaborator.
func (s *Service) Migrate(ctx context.Context, asset solana.PublicKey) (*MigrationHandle, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return s.graduation.Migrate(ctx, entry.state)
}

// EmergencyWithdraw releases a graduated curve's reserves to its creator.
func (s *Service) EmergencyWithdraw(ctx context.Context, asset solana.PublicKey) (uint64, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return s.graduation.EmergencyWithdraw(ctx, entry.state)
}

// GetPrice returns the instantaneous price at the curve's current supply.
func (s *Service) GetPrice(asset solana.PublicKey) (uint64, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.CurrentPrice()
}

// GetCurve returns a copy of the curve's current state.
func (s *Service) GetCurve(asset solana.PublicKey) (curve.State, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return curve.State{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return *entry.state, nil
}

// Progress reports how far the curve's reserves are toward the
// graduation threshold, in whole SOL and as a percentage.
type Progress struct {
	ReservesSol  uint64
	ThresholdSol uint64
	Percent      float64
	Graduated    bool
}

// GraduationProgress returns the curve's progress toward graduation.
func (s *Service) GraduationProgress(asset solana.PublicKey) (Progress, error) {
	entry, err := s.entry(asset)
	if err != nil {
		return Progress{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	reservesSol := entry.state.SolReserves / curve.LamportsPerSol
	percent := float64(reservesSol) / float64(GraduationThresholdSol) * 100
	if percent > 100 {
		percent = 100
	}
	return Progress{
		ReservesSol:  reservesSol,
		ThresholdSol: GraduationThresholdSol,
		Percent:      percent,
		Graduated:    entry.state.Graduated,
	}, nil
}

// TradeHistory reads the curve's persisted trades, newest first.
// Returns nil when the engine runs without persistence.
func (s *Service) TradeHistory(ctx context.Context, asset solana.PublicKey, limit, offset int) ([]*models.Trade, error) {
	if _, err := s.entry(asset); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListTrades(ctx, asset.String(), limit, offset)
}

// ListAssets returns the assets with registered curves.
func (s *Service) ListAssets() []solana.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]solana.PublicKey, 0, len(s.curves))
	for asset := range s.curves {
		assets = append(assets, asset)
	}
	return assets
}

func (s *Service) entry(asset solana.PublicKey) (*curveEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.curves[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotFound, asset.String())
	}
	return entry, nil
}

// afterTrade persists the applied trade and refreshed curve counters.
// Called with the curve lock held.
func (s *Service) afterTrade(ctx context.Context, state *curve.State, party solana.PublicKey, direction events.TradeDirection, gross uint64, res *TradeResult) {
	if s.metrics != nil {
		s.metrics.SetReserves(state.Asset.String(), state.SolReserves)
	}
	if s.store == nil {
		return
	}
	if err := s.store.SaveTrade(ctx, &models.Trade{
		TradeID:       uuid.New().String(),
		Asset:         state.Asset.String(),
		Party:         party.String(),
		Direction:     string(direction),
		GrossAmount:   gross,
		CounterAmount: res.CounterAmount,
		Fee:           res.Fee,
	}); err != nil {
		s.logger.Error("Failed to persist trade", zap.Error(err))
	}
	s.persistUpdate(ctx, state)
}

func (s *Service) persistUpdate(ctx context.Context, state *curve.State) {
	if s.store == nil {
		return
	}
	if err := s.store.UpdateCurve(ctx, curveModel(state)); err != nil {
		s.logger.Error("Failed to persist curve update", zap.Error(err))
	}
}

func curveModel(state *curve.State) *models.Curve {
	return &models.Curve{
		Asset:         state.Asset.String(),
		Creator:       state.Creator.String(),
		FeeCollector:  state.FeeCollector.String(),
		Vault:         state.Vault.String(),
		BasePrice:     state.BasePrice,
		TokenSupply:   state.TokenSupply,
		MaxSupply:     state.MaxSupply,
		SolReserves:   state.SolReserves,
		Graduated:     state.Graduated,
		InitializedAt: state.CreatedAt,
	}
}
