// internal/curve/curve.go
package curve

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Program-derived vault seed, same derivation the on-chain escrow uses.
var vaultSeed = []byte("sol_vault")

// EngineProgramID identifies this engine as the escrow authority for
// vault derivation. Vaults are program-derived addresses so no private
// key for them can exist.
var EngineProgramID = solana.MustPublicKeyFromBase58("BMH2GPLn8woVeGFKAHwJ3wPpBf7mhxRipPzPm9d6Pbjt")

// State holds one asset's curve parameters and mutable counters.
// A State instance is exclusively owned by the engine serving the
// asset; callers must serialize operations on it.
type State struct {
	Asset        solana.PublicKey
	Creator      solana.PublicKey
	FeeCollector solana.PublicKey
	Vault        solana.PublicKey

	BasePrice   uint64
	TokenSupply uint64
	MaxSupply   uint64
	SolReserves uint64

	Graduated bool
	CreatedAt time.Time
}

// NewState validates curve parameters and builds the initial state.
// BasePrice and MaxSupply must both be positive; a zero max supply
// would make the price ratio undefined, so it is rejected here rather
// than guarded downstream.
func NewState(asset, creator, feeCollector solana.PublicKey, basePrice, maxSupply uint64) (*State, error) {
	if basePrice == 0 {
		return nil, ErrInvalidBasePrice
	}
	if maxSupply == 0 {
		return nil, ErrInvalidMaxSupply
	}

	vault, _, err := solana.FindProgramAddress(
		[][]byte{vaultSeed, asset.Bytes()},
		EngineProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault address: %w", err)
	}

	return &State{
		Asset:        asset,
		Creator:      creator,
		FeeCollector: feeCollector,
		Vault:        vault,
		BasePrice:    basePrice,
		TokenSupply:  0,
		MaxSupply:    maxSupply,
		SolReserves:  0,
		Graduated:    false,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CurrentPrice returns the instantaneous price at the curve's current supply.
func (s *State) CurrentPrice() (uint64, error) {
	return CurrentPrice(s.TokenSupply, s.MaxSupply, s.BasePrice)
}
