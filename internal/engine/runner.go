// internal/engine/runner.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/curve-engine/internal/config"
	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/events"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
	"github.com/rovshanmuradov/curve-engine/internal/logger"
	"github.com/rovshanmuradov/curve-engine/internal/metrics"
	"github.com/rovshanmuradov/curve-engine/internal/migration"
	"github.com/rovshanmuradov/curve-engine/internal/storage"
	"github.com/rovshanmuradov/curve-engine/internal/storage/postgres"
)

// HTTPServer is the transport the runner controls; satisfied by
// httpapi.Server. Declared here so the engine package does not import
// its own transport.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Runner assembles the engine from configuration and drives its
// lifecycle: ledger, event bus, optional Postgres persistence, metric
// export and graceful shutdown on SIGINT/SIGTERM.
type Runner struct {
	cfg     *config.Config
	log     *logger.Logger
	bus     *events.Bus
	store   storage.Storage
	service *Service
	metrics *metrics.Metrics
	ledger  *ledger.Memory

	newServer func(addr string, svc *Service, m *metrics.Metrics, feeCollector solana.PublicKey) HTTPServer
}

// NewRunner wires the engine's collaborators from configuration.
func NewRunner(cfg *config.Config) (*Runner, error) {
	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	mem := ledger.NewMemory(curve.EngineProgramID, log.Logger)
	bus := events.NewBus(log.Logger, cfg.EventBufferSize)
	events.AttachLogObserver(bus, log.Logger)
	m := metrics.New()

	var store storage.Storage
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err = postgres.NewStorage(ctx, cfg.PostgresURL, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init storage: %w", err)
		}
		if err := store.RunMigrations(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	service := NewService(ServiceConfig{
		Ledger:   mem.Session(curve.EngineProgramID),
		Migrator: migration.NewLogMigrator(log.Logger),
		Bus:      bus,
		Store:    store,
		Metrics:  m,
		Logger:   log.Logger,
	})

	return &Runner{
		cfg:     cfg,
		log:     log,
		bus:     bus,
		store:   store,
		service: service,
		metrics: m,
		ledger:  mem,
	}, nil
}

// Logger exposes the runner's logger for fatal reporting in main.
func (r *Runner) Logger() *zap.Logger {
	return r.log.Logger
}

// Service exposes the assembled engine service.
func (r *Runner) Service() *Service {
	return r.service
}

// Ledger exposes the in-memory ledger, e.g. for bootstrap credits.
func (r *Runner) Ledger() *ledger.Memory {
	return r.ledger
}

// SetServerFactory overrides HTTP server construction; used by main to
// plug in the httpapi package and by tests to plug in a stub.
func (r *Runner) SetServerFactory(f func(addr string, svc *Service, m *metrics.Metrics, feeCollector solana.PublicKey) HTTPServer) {
	r.newServer = f
}

// Run restores persisted curves, starts the HTTP API and blocks until
// a shutdown signal arrives or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.restore(ctx); err != nil {
		return err
	}

	feeCollector, err := solana.PublicKeyFromBase58(r.cfg.FeeCollector)
	if err != nil {
		return fmt.Errorf("invalid fee collector key: %w", err)
	}

	if r.newServer == nil {
		return fmt.Errorf("no HTTP server factory configured")
	}
	server := r.newServer(r.cfg.ListenAddr, r.service, r.metrics, feeCollector)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			r.log.Info("Signal received: " + sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			r.log.Warn("HTTP shutdown error", zap.Error(err))
		}
		if err := r.bus.Shutdown(shutdownCtx); err != nil {
			r.log.Warn("Event bus shutdown error", zap.Error(err))
		}
		if r.store != nil {
			if err := r.store.Close(); err != nil {
				r.log.Warn("Storage close error", zap.Error(err))
			}
		}
		cancel()
		return nil
	})

	err = g.Wait()
	r.log.Info("Engine stopped")
	_ = r.log.Sync()
	return err
}

// restore reloads persisted curves into the registry after a restart.
func (r *Runner) restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	records, err := r.store.ListCurves(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted curves: %w", err)
	}

	for _, rec := range records {
		asset, err := solana.PublicKeyFromBase58(rec.Asset)
		if err != nil {
			r.log.Warn("Skipping curve with invalid asset key", zap.String("asset", rec.Asset))
			continue
		}
		creator, err := solana.PublicKeyFromBase58(rec.Creator)
		if err != nil {
			r.log.Warn("Skipping curve with invalid creator key", zap.String("asset", rec.Asset))
			continue
		}
		feeCollector, err := solana.PublicKeyFromBase58(rec.FeeCollector)
		if err != nil {
			r.log.Warn("Skipping curve with invalid fee collector key", zap.String("asset", rec.Asset))
			continue
		}

		state, err := curve.NewState(asset, creator, feeCollector, rec.BasePrice, rec.MaxSupply)
		if err != nil {
			r.log.Warn("Skipping invalid persisted curve",
				zap.String("asset", rec.Asset),
				zap.Error(err))
			continue
		}
		state.TokenSupply = rec.TokenSupply
		state.SolReserves = rec.SolReserves
		state.Graduated = rec.Graduated
		state.CreatedAt = rec.InitializedAt

		if err := r.service.Restore(ctx, state); err != nil {
			r.log.Warn("Failed to restore curve",
				zap.String("asset", rec.Asset),
				zap.Error(err))
			continue
		}
	}

	r.log.Info(fmt.Sprintf("Restored %d curves", len(records)))
	return nil
}
