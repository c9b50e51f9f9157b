// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/curve-engine/internal/storage/models"
)

// Storage persists curve snapshots and executed trades. The engine
// writes through after every applied operation; reads back the curve
// set on restart.
type Storage interface {
	// Curves
	SaveCurve(ctx context.Context, c *models.Curve) error
	UpdateCurve(ctx context.Context, c *models.Curve) error
	GetCurve(ctx context.Context, asset string) (*models.Curve, error)
	ListCurves(ctx context.Context) ([]*models.Curve, error)

	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, asset string, limit, offset int) ([]*models.Trade, error)

	RunMigrations() error
	Close() error
}
