package client

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/ticks"
	"github.com/betbot/godex/lob/types"
)

// BuildMarketOrder packages a market-order intent: semibook selection, price
// bound resolution (max-tick sentinel when unbounded) and the fill target.
func (e *Engine) BuildMarketOrder(intent types.TradeIntent) (*types.OrderParams, error) {
	if intent.FillVolume == nil || intent.FillVolume.Sign() <= 0 {
		return nil, errors.New("fill volume must be positive")
	}

	tick := ticks.MaxTickSentinel()
	if intent.MaxPrice != nil {
		t, err := ticks.TickForIntent(intent.Direction, *intent.MaxPrice, intent.Market)
		if err != nil {
			return nil, err
		}
		tick = t
	}

	return &types.OrderParams{
		Kind:       types.OrderKindMarket,
		OLKey:      intent.Market.SemibookKey(intent.Direction),
		Tick:       tick,
		FillVolume: new(big.Int).Set(intent.FillVolume),
		FillWants:  intent.FillWants,
	}, nil
}

// BuildLimitOrder packages a resting-order intent against a book snapshot.
// The snapshot must match the market structurally; a mismatch means the
// caller fetched the wrong book and is rejected as stale.
func (e *Engine) BuildLimitOrder(intent types.TradeIntent, book *types.BookSnapshot, opts types.OrderOptions) (*types.OrderParams, error) {
	if intent.FillVolume == nil || intent.FillVolume.Sign() <= 0 {
		return nil, errors.New("fill volume must be positive")
	}
	if book == nil {
		return nil, &types.StaleBookError{Reason: "no book snapshot supplied"}
	}

	tick, err := ticks.TickForIntent(intent.Direction, intent.LimitPrice, intent.Market)
	if err != nil {
		return nil, err
	}

	cfg := book.BidsConfig
	if intent.Direction == types.DirectionBuy {
		cfg = book.AsksConfig
	}
	if cfg.TickSpacing != intent.Market.TickSpacing {
		return nil, &types.StaleBookError{Reason: "tick spacing differs from market"}
	}
	if !cfg.Active || book.Global.Dead {
		return nil, &types.StaleBookError{Reason: "offer list inactive"}
	}

	gasReq := opts.RestingGasReq
	if gasReq == 0 {
		gasReq = e.restingGasReq
	}

	params := &types.OrderParams{
		Kind:       types.OrderKindLimit,
		OLKey:      intent.Market.SemibookKey(intent.Direction),
		Tick:       tick,
		FillVolume: new(big.Int).Set(intent.FillVolume),
		FillWants:  intent.FillWants,
		FillOrKill: opts.FillOrKill,
		PostOnly:   opts.PostOnly,
		Expiry:     opts.Expiry,
		GasReq:     gasReq,
		BaseLogic:  opts.BaseLogic,
		QuoteLogic: opts.QuoteLogic,
	}
	if opts.NativeValue != nil {
		params.NativeValue = new(big.Int).Set(opts.NativeValue)
	}
	return params, nil
}

// BuildCancellation packages a removal request for a resting offer. The
// offer lives on the resting side of the original direction, not the side it
// crossed. deprovision additionally reclaims the funds locked for the
// offer's gas/bounty provision.
func BuildCancellation(market types.Market, dir types.Direction, offerID *big.Int, deprovision bool) *types.OrderParams {
	return &types.OrderParams{
		Kind:        types.OrderKindCancel,
		OLKey:       market.RestingKey(dir),
		OfferID:     new(big.Int).Set(offerID),
		Deprovision: deprovision,
	}
}
