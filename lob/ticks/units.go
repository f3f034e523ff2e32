package ticks

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToUnits converts a human amount to the token's smallest unit, truncating
// any sub-unit remainder.
func ToUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

// FromUnits converts a smallest-unit amount back to a human decimal.
func FromUnits(units *big.Int, decimals int32) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -decimals)
}
