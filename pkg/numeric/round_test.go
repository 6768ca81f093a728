package numeric

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"product just below a tie", 0.5 * 1.41, 0.7},
		{"product just below a tie 2", 2.5 * 1.41, 3.52},
		{"product just above a tie", 0.5*0.85 + 0.1, 0.53},
		{"exact binary tie goes to even", 0.125, 0.12},
		{"exact binary tie goes to even 2", 0.375, 0.38},
		{"negative", -1.41, -1.41},
		{"rounds up across integer", 29.9996, 30},
		{"zero", 0, 0},
		{"large", 1e20, 1e20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in, 2))
		})
	}
}

func TestRoundNonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(-1), 2), -1))
}

func TestExactKeepsBinaryValue(t *testing.T) {
	assert.Equal(t, "0.125", Exact(0.125).String())
	assert.True(t, Exact(0.5*1.41).LessThan(decimal.RequireFromString("0.705")))
	assert.True(t, Exact(0.5*0.85+0.1).GreaterThan(decimal.RequireFromString("0.525")))
	assert.Equal(t, "-3", Exact(-3).String())
}
