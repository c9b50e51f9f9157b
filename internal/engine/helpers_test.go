package engine

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-engine/internal/curve"
	"github.com/rovshanmuradov/curve-engine/internal/ledger"
)

func testKey(b byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = b
	return solana.PublicKeyFromBytes(raw[:])
}

type fixture struct {
	mem     *ledger.Memory
	session ledger.Ledger
	state   *curve.State

	creator      solana.PublicKey
	feeCollector solana.PublicKey
	trader       solana.PublicKey
}

// newFixture builds a curve with a registered vault on an in-memory
// ledger, with the engine acting as escrow authority.
func newFixture(t *testing.T, basePrice, maxSupply uint64) *fixture {
	t.Helper()

	f := &fixture{
		creator:      testKey(2),
		feeCollector: testKey(3),
		trader:       testKey(4),
	}

	f.mem = ledger.NewMemory(curve.EngineProgramID, zap.NewNop())
	f.session = f.mem.Session(curve.EngineProgramID)

	state, err := curve.NewState(testKey(1), f.creator, f.feeCollector, basePrice, maxSupply)
	require.NoError(t, err)
	f.state = state

	require.NoError(t, f.session.RegisterVault(context.Background(), state.Vault))
	return f
}

func (f *fixture) balance(t *testing.T, id solana.PublicKey) uint64 {
	t.Helper()
	balance, err := f.session.Balance(context.Background(), id)
	require.NoError(t, err)
	return balance
}

func (f *fixture) tokenBalance(t *testing.T, id solana.PublicKey) uint64 {
	t.Helper()
	held, err := f.session.TokenBalance(context.Background(), f.state.Asset, id)
	require.NoError(t, err)
	return held
}
