// internal/migration/migrator.go
package migration

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Migrator is the external liquidity-migration collaborator. A
// graduated curve's frozen reserves and supply are handed to it once;
// the engine treats the call as fire-and-forget and only records the
// returned pool identifier.
type Migrator interface {
	// CreatePool seeds an external pool with the given liquidity and
	// returns its identifier.
	CreatePool(ctx context.Context, asset solana.PublicKey, solAmount, tokenAmount uint64) (string, error)
}

// LogMigrator is a stand-in Migrator for local runs and tests. It
// fabricates a pool identifier and logs the handoff instead of
// creating a real external pool.
type LogMigrator struct {
	logger *zap.Logger
}

// NewLogMigrator creates a logging migrator.
func NewLogMigrator(logger *zap.Logger) *LogMigrator {
	return &LogMigrator{logger: logger.Named("migrator")}
}

// CreatePool implements Migrator.
func (m *LogMigrator) CreatePool(_ context.Context, asset solana.PublicKey, solAmount, tokenAmount uint64) (string, error) {
	pool := fmt.Sprintf("pool-%s", uuid.New().String())
	m.logger.Info("Pool created",
		zap.String("asset", asset.String()),
		zap.String("pool", pool),
		zap.Uint64("sol_amount", solAmount),
		zap.Uint64("token_amount", tokenAmount))
	return pool, nil
}
