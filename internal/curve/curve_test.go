package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = b
	return solana.PublicKeyFromBytes(raw[:])
}

func TestNewState(t *testing.T) {
	asset := testKey(1)
	creator := testKey(2)
	feeCollector := testKey(3)

	state, err := NewState(asset, creator, feeCollector, 5_000_000, 1_000_000_000)
	require.NoError(t, err)

	assert.Equal(t, asset, state.Asset)
	assert.Equal(t, creator, state.Creator)
	assert.Equal(t, feeCollector, state.FeeCollector)
	assert.Equal(t, uint64(5_000_000), state.BasePrice)
	assert.Equal(t, uint64(1_000_000_000), state.MaxSupply)
	assert.Zero(t, state.TokenSupply)
	assert.Zero(t, state.SolReserves)
	assert.False(t, state.Graduated)
	assert.False(t, state.Vault.IsZero())
}

func TestNewStateRejectsZeroParameters(t *testing.T) {
	_, err := NewState(testKey(1), testKey(2), testKey(3), 0, 1_000_000_000)
	assert.ErrorIs(t, err, ErrInvalidBasePrice)

	_, err = NewState(testKey(1), testKey(2), testKey(3), 5_000_000, 0)
	assert.ErrorIs(t, err, ErrInvalidMaxSupply)
}

func TestVaultDerivationDeterministic(t *testing.T) {
	a, err := NewState(testKey(7), testKey(2), testKey(3), 1, 1_000_000_000)
	require.NoError(t, err)
	b, err := NewState(testKey(7), testKey(9), testKey(9), 2, 2_000_000_000)
	require.NoError(t, err)

	// The vault is derived from the asset alone, independent of the
	// other curve parameters.
	assert.Equal(t, a.Vault, b.Vault)

	c, err := NewState(testKey(8), testKey(2), testKey(3), 1, 1_000_000_000)
	require.NoError(t, err)
	assert.NotEqual(t, a.Vault, c.Vault)
}

func TestStateCurrentPrice(t *testing.T) {
	state, err := NewState(testKey(1), testKey(2), testKey(3), 1_000_000_000, 1_000_000_000)
	require.NoError(t, err)

	price, err := state.CurrentPrice()
	require.NoError(t, err)
	assert.Equal(t, state.BasePrice, price)

	state.TokenSupply = state.MaxSupply
	price, err = state.CurrentPrice()
	require.NoError(t, err)
	assert.Equal(t, 4*state.BasePrice, price)
}
