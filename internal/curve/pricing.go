// internal/curve/pricing.go
package curve

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// Fixed-point and integration constants. PrecisionScale is the
// six-decimal fixed-point scale of the price formula; QuoteSteps is
// the number of supply increments the quote routines walk, bounding
// per-trade approximation error to ~1/10000 of the curve's full price
// range; LamportsPerSol normalizes price*quantity products back into
// lamports.
const (
	PrecisionScale = 1_000_000
	QuoteSteps     = 10_000
	LamportsPerSol = 1_000_000_000
)

// CurrentPrice evaluates price = basePrice * (1 + supply/maxSupply)^2
// in fixed-point arithmetic. Intermediates are computed in 256-bit
// space so the squared term cannot wrap; the result must still fit a
// uint64 or the call fails with ErrMathOverflow. A zero maxSupply is a
// division by zero and is reported as such, not silently defaulted.
//
// At supply 0 the price is exactly basePrice; at supply == maxSupply
// it is exactly 4*basePrice.
func CurrentPrice(supply, maxSupply, basePrice uint64) (uint64, error) {
	if maxSupply == 0 {
		return 0, ErrDivisionByZero
	}

	scale := uint256.NewInt(PrecisionScale)

	ratio := new(uint256.Int).Mul(uint256.NewInt(supply), scale)
	ratio.Div(ratio, uint256.NewInt(maxSupply))

	onePlusRatio := new(uint256.Int).Add(uint256.NewInt(PrecisionScale), ratio)

	squared := new(uint256.Int).Mul(onePlusRatio, onePlusRatio)
	squared.Div(squared, scale)

	price := new(uint256.Int).Mul(uint256.NewInt(basePrice), squared)
	price.Div(price, scale)

	if !price.IsUint64() {
		return 0, ErrMathOverflow
	}
	return price.Uint64(), nil
}

// QuoteBuy converts a lamport budget into a token quantity by walking
// the supply axis from currentSupply toward maxSupply in QuoteSteps
// equal increments, charging each full increment at the price at the
// start of the increment. When the remaining budget no longer covers a
// full increment, the tail is converted proportionally at the current
// increment's price. The walk stops when the budget is exhausted or
// supply reaches maxSupply.
//
// The result is a quote only; capacity against maxSupply is enforced
// by the trade executor.
func QuoteBuy(currentSupply, maxSupply, basePrice, lamports uint64) (uint64, error) {
	increment := maxSupply / QuoteSteps
	if increment == 0 {
		return 0, ErrDivisionByZero
	}

	var tokens uint64
	remaining := lamports
	supply := currentSupply

	for remaining > 0 && supply < maxSupply {
		price, err := CurrentPrice(supply, maxSupply, basePrice)
		if err != nil {
			return 0, err
		}

		cost, err := mulDiv(price, increment, LamportsPerSol)
		if err != nil {
			return 0, err
		}

		if cost > remaining {
			// Partial fill of the last increment at its flat price.
			partial, err := mulDiv(remaining, LamportsPerSol, price)
			if err != nil {
				return 0, err
			}
			tokens, err = checkedAdd(tokens, partial)
			if err != nil {
				return 0, err
			}
			break
		}

		if tokens, err = checkedAdd(tokens, increment); err != nil {
			return 0, err
		}
		if supply, err = checkedAdd(supply, increment); err != nil {
			return 0, err
		}
		remaining -= cost
	}

	return tokens, nil
}

// QuoteSell is the mirror of QuoteBuy: it walks the supply axis
// downward from currentSupply, valuing each full increment at the
// price at the pre-decrement supply and the final partial increment
// proportionally. The walk stops when the requested amount is
// exhausted or supply reaches zero.
func QuoteSell(currentSupply, maxSupply, basePrice, tokenAmount uint64) (uint64, error) {
	increment := maxSupply / QuoteSteps
	if increment == 0 {
		return 0, ErrDivisionByZero
	}

	var lamports uint64
	remaining := tokenAmount
	supply := currentSupply

	for remaining > 0 && supply > 0 {
		price, err := CurrentPrice(supply, maxSupply, basePrice)
		if err != nil {
			return 0, err
		}

		if remaining < increment {
			partial, err := mulDiv(price, remaining, LamportsPerSol)
			if err != nil {
				return 0, err
			}
			lamports, err = checkedAdd(lamports, partial)
			if err != nil {
				return 0, err
			}
			break
		}

		value, err := mulDiv(price, increment, LamportsPerSol)
		if err != nil {
			return 0, err
		}
		if lamports, err = checkedAdd(lamports, value); err != nil {
			return 0, err
		}
		if supply, err = checkedSub(supply, increment); err != nil {
			return 0, err
		}
		remaining -= increment
	}

	return lamports, nil
}

// mulDiv computes a*b/c with a 128-bit intermediate product. It fails
// with ErrDivisionByZero for c == 0 and ErrMathOverflow when the
// quotient does not fit a uint64.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrMathOverflow
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrMathOverflow
	}
	return diff, nil
}
