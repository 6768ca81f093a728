// Package numeric rounds float64 results the way the reported scores are
// defined: on the exact binary value, ties to even.
package numeric

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Exact returns the decimal expansion of x with no loss. decimal.NewFromFloat
// yields the shortest representation instead, which turns 0.70499999... into
// 0.705 and changes the rounding outcome.
func Exact(x float64) decimal.Decimal {
	frac, exp := math.Frexp(x)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53

	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// mant * 2^-k == mant * 5^k * 10^-k
	k := int64(-exp)
	mant.Mul(mant, new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil))
	return decimal.NewFromBigInt(mant, int32(-k))
}

// Round rounds x to places decimals. Non-finite values are returned as is.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := Exact(x).RoundBank(places).Float64()
	return f
}
