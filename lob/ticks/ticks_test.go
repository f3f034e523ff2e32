package ticks

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/shopspring/decimal"

	"github.com/betbot/godex/lob/types"
)

func mkMarket(baseDec, quoteDec int32, spacing uint64) types.Market {
	return types.Market{
		Base:        types.Asset{Symbol: "BASE", Decimals: baseDec},
		Quote:       types.Asset{Symbol: "QUOTE", Decimals: quoteDec},
		TickSpacing: spacing,
	}
}

func TestPriceToTickKnownValues(t *testing.T) {
	m := mkMarket(6, 6, 1)

	tests := []struct {
		price string
		want  int64
	}{
		{"1", 0},
		{"1.0001", 1},
		{"0.5", -6932}, // ln(0.5)/ln(1.0001) = -6931.8..., floored
	}
	for _, tc := range tests {
		got, err := PriceToTick(decimal.RequireFromString(tc.price), m)
		if err != nil {
			t.Fatalf("PriceToTick(%s): %v", tc.price, err)
		}
		if got != tc.want {
			t.Errorf("PriceToTick(%s) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestPriceToTickRejectsNonPositive(t *testing.T) {
	m := mkMarket(18, 6, 1)
	for _, price := range []string{"0", "-1", "-0.0001"} {
		_, err := PriceToTick(decimal.RequireFromString(price), m)
		var perr *types.InvalidPriceError
		if !errors.As(err, &perr) {
			t.Errorf("PriceToTick(%s): got %v, want InvalidPriceError", price, err)
		}
	}
}

func TestPriceToTickRejectsOutOfRange(t *testing.T) {
	m := mkMarket(6, 6, 1)
	for _, price := range []string{"1e40", "1e-40"} {
		_, err := PriceToTick(decimal.RequireFromString(price), m)
		var perr *types.InvalidPriceError
		if !errors.As(err, &perr) {
			t.Errorf("PriceToTick(%s): got %v, want InvalidPriceError", price, err)
		}
	}
}

// A market with a wide decimal gap: 18-decimal base against a 6-decimal
// quote. Human price 100 becomes a raw ratio of 1e-10, far on the negative
// side of the grid yet well inside the bound.
func TestPriceToTickDecimalGap(t *testing.T) {
	m := mkMarket(18, 6, 1)
	price := decimal.RequireFromString("100")

	tick, err := PriceToTick(price, m)
	if err != nil {
		t.Fatalf("PriceToTick: %v", err)
	}
	if tick >= 0 {
		t.Fatalf("tick = %d, want negative (raw ratio is 1e-10)", tick)
	}
	if tick < -MaxTick {
		t.Fatalf("tick = %d, outside protocol range", tick)
	}

	// The resolved tick must bracket the raw ratio from below.
	lo := math.Pow(1.0001, float64(tick))
	hi := math.Pow(1.0001, float64(tick+1))
	raw := 1e-10
	if lo > raw*(1+1e-9) || hi <= raw*(1-1e-9) {
		t.Errorf("tick %d does not bracket raw price: [%g, %g) vs %g", tick, lo, hi, raw)
	}
}

func TestTickForIntentNegatesExactlyOnceForBuys(t *testing.T) {
	m := mkMarket(18, 6, 1)
	price := decimal.RequireFromString("123.45")

	sell, err := TickForIntent(types.DirectionSell, price, m)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	buy, err := TickForIntent(types.DirectionBuy, price, m)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buy != -sell {
		t.Errorf("buy tick %d, want %d (negated sell tick)", buy, -sell)
	}

	plain, _ := PriceToTick(price, m)
	if sell != plain {
		t.Errorf("sell tick %d differs from raw conversion %d", sell, plain)
	}
}

func TestMaxTickSentinel(t *testing.T) {
	if got := MaxTickSentinel(); got != MaxTick {
		t.Errorf("MaxTickSentinel() = %d, want %d", got, MaxTick)
	}
}

func TestAlignDown(t *testing.T) {
	tests := []struct {
		t, spacing, want int64
	}{
		{100, 1, 100},
		{101, 10, 100},
		{100, 10, 100},
		{-101, 10, -110},
		{-100, 10, -100},
		{-1, 10, -10},
		{7, 100, 0},
	}
	for _, tc := range tests {
		if got := alignDown(tc.t, tc.spacing); got != tc.want {
			t.Errorf("alignDown(%d, %d) = %d, want %d", tc.t, tc.spacing, got, tc.want)
		}
	}
}

// Whatever the inputs, the resolved tick sits on the spacing grid and never
// rounds toward a price worse for the caller.
func TestPriceToTickConservative(t *testing.T) {
	spacings := []uint64{1, 5, 10, 60, 100}
	f := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		price := decimal.NewFromFloat(math.Exp(rng.Float64()*40 - 20)) // e^-20 .. e^20
		m := mkMarket(int32(rng.Intn(19)), int32(rng.Intn(19)), spacings[rng.Intn(len(spacings))])

		tick, err := PriceToTick(price, m)
		if err != nil {
			// Range rejection is acceptable; wrong rounding is not.
			var perr *types.InvalidPriceError
			return errors.As(err, &perr)
		}

		if tick%int64(m.TickSpacing) != 0 {
			return false
		}

		raw := price.Shift(m.Quote.Decimals - m.Base.Decimals)
		rawF, _ := raw.Float64()
		exact := math.Log(rawF) / tickBase
		return float64(tick) <= exact+1e-6
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}
