// Package ticks holds the pure numeric conversions between human prices and
// the book's quantized logarithmic price grid.
package ticks

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/betbot/godex/lob/types"
)

// MaxTick bounds the price grid; |tick| beyond it is rejected before any
// submission.
const MaxTick int64 = 887272

// tickBase is ln(1.0001): one tick is one basis point of price.
var tickBase = math.Log(1.0001)

// PriceToTick maps a human quote-per-base price onto the market's tick grid.
//
// The price is first scaled by the quote/base decimal difference to the raw
// smallest-unit ratio, then quantized. Rounding is always toward the tighter
// bound (down on the log grid, then down to the tick-spacing multiple), so
// the resolved tick never admits an execution beyond the requested price.
func PriceToTick(price decimal.Decimal, m types.Market) (int64, error) {
	if price.Sign() <= 0 {
		return 0, &types.InvalidPriceError{Price: price, Reason: "price must be positive"}
	}

	raw := price.Shift(m.Quote.Decimals - m.Base.Decimals)
	rawF, _ := raw.Float64()
	if rawF <= 0 || math.IsInf(rawF, 0) {
		return 0, &types.InvalidPriceError{Price: price, Reason: "price not representable on the tick grid"}
	}

	tick := int64(math.Floor(math.Log(rawF) / tickBase))
	tick = alignDown(tick, int64(m.TickSpacing))

	if tick > MaxTick || tick < -MaxTick {
		return 0, &types.InvalidPriceError{Price: price, Reason: "outside the protocol tick range"}
	}
	return tick, nil
}

// TickForIntent resolves the tick for a taker intent. A buy crosses the ask
// semibook, whose price grid is mirrored relative to the bid side, so the
// computed tick is negated. This negation happens here and nowhere else.
func TickForIntent(dir types.Direction, price decimal.Decimal, m types.Market) (int64, error) {
	t, err := PriceToTick(price, m)
	if err != nil {
		return 0, err
	}
	if dir == types.DirectionBuy {
		return -t, nil
	}
	return t, nil
}

// MaxTickSentinel is the unbounded-price sentinel used by market orders
// without a price bound.
func MaxTickSentinel() int64 {
	return MaxTick
}

// alignDown rounds t toward negative infinity onto the spacing grid.
func alignDown(t, spacing int64) int64 {
	if spacing <= 1 {
		return t
	}
	q := t / spacing
	if t%spacing != 0 && t < 0 {
		q--
	}
	return q * spacing
}
