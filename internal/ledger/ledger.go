// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrUnauthorized       = errors.New("ledger: caller not authorized")
	ErrInsufficientFunds  = errors.New("ledger: insufficient funds")
	ErrInsufficientTokens = errors.New("ledger: insufficient token balance")
)

// Ledger is the custody collaborator the trade engine delegates all
// value and asset movement to. Issuing assets and moving value out of
// an escrow vault are capability-checked: they succeed only for a
// session bound to the engine's designated escrow authority.
type Ledger interface {
	// IssueAsset mints amount units of asset to the recipient.
	IssueAsset(ctx context.Context, asset, to solana.PublicKey, amount uint64) error
	// RetireAsset burns amount units of asset from the holder.
	RetireAsset(ctx context.Context, asset, from solana.PublicKey, amount uint64) error
	// MoveValue transfers lamport-denominated value between accounts.
	MoveValue(ctx context.Context, from, to solana.PublicKey, amount uint64) error

	// RegisterVault marks an account as an escrow vault so value can
	// only leave it through the escrow authority.
	RegisterVault(ctx context.Context, vault solana.PublicKey) error

	// Balance reports the lamport balance of an account.
	Balance(ctx context.Context, id solana.PublicKey) (uint64, error)
	// TokenBalance reports an account's holding of the given asset.
	TokenBalance(ctx context.Context, asset, id solana.PublicKey) (uint64, error)
}
