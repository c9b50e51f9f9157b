// internal/httpapi/server.go
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/engine"
	"github.com/rovshanmuradov/curve-engine/internal/metrics"
)

// Server exposes the curve engine over HTTP. All trade and graduation
// routes delegate to the engine Service, which serializes per-curve
// access; the server itself is stateless.
type Server struct {
	engine          *engine.Service
	metrics         *metrics.Metrics
	feeCollectorKey solana.PublicKey
	logger          *zap.Logger
	http            *http.Server
}

// New builds the server with its route table. New curves route their
// fees to feeCollector.
func New(addr string, svc *engine.Service, m *metrics.Metrics, feeCollector solana.PublicKey, logger *zap.Logger) *Server {
	s := &Server{
		engine:          svc,
		metrics:         m,
		feeCollectorKey: feeCollector,
		logger:          logger.Named("httpapi"),
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/curves", func(cr chi.Router) {
		cr.Post("/", s.handleInitialize)
		cr.Get("/", s.handleList)
		cr.Route("/{asset}", func(ar chi.Router) {
			ar.Get("/", s.handleGetCurve)
			ar.Get("/price", s.handleGetPrice)
			ar.Get("/progress", s.handleProgress)
			ar.Get("/trades", s.handleTrades)
			ar.Post("/buy", s.handleBuy)
			ar.Post("/sell", s.handleSell)
			ar.Post("/graduate", s.handleGraduate)
			ar.Post("/migrate", s.handleMigrate)
			ar.Post("/emergency-withdraw", s.handleEmergencyWithdraw)
		})
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the route table, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until it fails or is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP API listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
