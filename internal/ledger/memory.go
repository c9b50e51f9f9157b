// internal/ledger/memory.go
package ledger

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Memory is an in-memory Ledger implementation. It tracks lamport
// balances, per-asset token balances and the set of escrow vaults, and
// enforces the escrow-authority capability on every privileged call.
// All methods are safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	balances map[solana.PublicKey]uint64
	tokens   map[solana.PublicKey]map[solana.PublicKey]uint64
	vaults   map[solana.PublicKey]bool

	escrowAuthority solana.PublicKey
	logger          *zap.Logger
}

// NewMemory creates an in-memory ledger whose privileged operations
// (minting, moving value out of a vault) require the given escrow
// authority.
func NewMemory(escrowAuthority solana.PublicKey, logger *zap.Logger) *Memory {
	return &Memory{
		balances:        make(map[solana.PublicKey]uint64),
		tokens:          make(map[solana.PublicKey]map[solana.PublicKey]uint64),
		vaults:          make(map[solana.PublicKey]bool),
		escrowAuthority: escrowAuthority,
		logger:          logger.Named("ledger"),
	}
}

// Session binds the ledger to an acting authority. Every call made
// through the returned handle is authorization-checked against that
// authority, independent of any signing scheme.
func (m *Memory) Session(authority solana.PublicKey) Ledger {
	return &session{ledger: m, authority: authority}
}


// Credit funds an account directly. Test and bootstrap helper; real
// deposits arrive from outside the engine.
func (m *Memory) Credit(id solana.PublicKey, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[id] += amount
}

type session struct {
	ledger    *Memory
	authority solana.PublicKey
}

func (s *session) IssueAsset(_ context.Context, asset, to solana.PublicKey, amount uint64) error {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.authority != m.escrowAuthority {
		return ErrUnauthorized
	}

	holders := m.tokens[asset]
	if holders == nil {
		holders = make(map[solana.PublicKey]uint64)
		m.tokens[asset] = holders
	}
	holders[to] += amount

	m.logger.Debug("Asset issued",
		zap.String("asset", asset.String()),
		zap.String("to", to.String()),
		zap.Uint64("amount", amount))
	return nil
}

func (s *session) RetireAsset(_ context.Context, asset, from solana.PublicKey, amount uint64) error {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	// Burning is authorized by the holder, or by the escrow authority
	// acting for the holder inside an executed trade.
	if s.authority != from && s.authority != m.escrowAuthority {
		return ErrUnauthorized
	}

	holders := m.tokens[asset]
	if holders[from] < amount {
		return ErrInsufficientTokens
	}
	holders[from] -= amount

	m.logger.Debug("Asset retired",
		zap.String("asset", asset.String()),
		zap.String("from", from.String()),
		zap.Uint64("amount", amount))
	return nil
}

func (s *session) MoveValue(_ context.Context, from, to solana.PublicKey, amount uint64) error {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	// Value leaves a registered vault only through the escrow
	// authority; regular accounts can be spent by their owner or by
	// the escrow authority acting for them in an executed trade.
	if m.vaults[from] {
		if s.authority != m.escrowAuthority {
			return ErrUnauthorized
		}
	} else if s.authority != from && s.authority != m.escrowAuthority {
		return ErrUnauthorized
	}

	if m.balances[from] < amount {
		return ErrInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount

	m.logger.Debug("Value moved",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Uint64("amount", amount))
	return nil
}

func (s *session) RegisterVault(_ context.Context, vault solana.PublicKey) error {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.authority != m.escrowAuthority {
		return ErrUnauthorized
	}
	m.vaults[vault] = true
	return nil
}

func (s *session) Balance(_ context.Context, id solana.PublicKey) (uint64, error) {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id], nil
}

func (s *session) TokenBalance(_ context.Context, asset, id solana.PublicKey) (uint64, error) {
	m := s.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[asset][id], nil
}
