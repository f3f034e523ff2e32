package client

import (
	"context"
	"math/big"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
	"github.com/betbot/godex/pkg/journal"
)

// OrderOutcome is the caller-facing result of a market or limit order call.
type OrderOutcome struct {
	ClientID string
	Receipt  *ethtypes.Receipt
	Result   *types.TradeResult
}

// CancelOutcome is the caller-facing result of a cancellation call.
type CancelOutcome struct {
	ClientID string
	Receipt  *ethtypes.Receipt
	Result   types.CancelResult
}

// MarketOrder runs the full pipeline for an immediate-execution order:
// build -> authorization gate -> submit -> decode. Failures propagate
// unchanged; nothing is retried here.
func (e *Engine) MarketOrder(ctx context.Context, intent types.TradeIntent, opts types.OrderOptions) (*OrderOutcome, error) {
	id := uuid.NewString()
	log := e.log.WithFields(map[string]interface{}{
		"call": id, "kind": "market", "direction": intent.Direction,
	})

	params, err := e.BuildMarketOrder(intent)
	if err != nil {
		return nil, err
	}

	if !opts.SkipApprovalCheck {
		if _, err := e.EnsureAllowance(ctx, params.OLKey.Inbound, e.contracts.Exchange, requiredSpend(intent)); err != nil {
			return nil, err
		}
	}

	data, err := e.exchangeABI.Pack("marketOrderByTick",
		olKeyOf(params.OLKey), big.NewInt(params.Tick), params.FillVolume, params.FillWants)
	if err != nil {
		return nil, errors.Wrap(err, "pack marketOrderByTick")
	}

	receipt, err := e.submit(ctx, e.contracts.Exchange, data, nil, orderGasFallback)
	if err != nil {
		return nil, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.SubmissionFailedError{TxHash: receipt.TxHash, GasUsed: receipt.GasUsed}
	}

	result, err := e.decodeMarketResult(receipt, intent)
	if err != nil {
		return nil, err
	}

	log.WithField("tx", receipt.TxHash.Hex()).Info("market order settled")
	e.recordOrder(id, intent, params, receipt, result)
	return &OrderOutcome{ClientID: id, Receipt: receipt, Result: result}, nil
}

// LimitOrder fetches a fresh book snapshot, then runs the same pipeline
// through the order router so the unmatched remainder can rest (GTC, or
// post-only when tagged).
func (e *Engine) LimitOrder(ctx context.Context, intent types.TradeIntent, opts types.OrderOptions) (*OrderOutcome, error) {
	id := uuid.NewString()
	log := e.log.WithFields(map[string]interface{}{
		"call": id, "kind": "limit", "direction": intent.Direction,
	})

	book, err := e.GetBook(ctx, intent.Market)
	if err != nil {
		return nil, err
	}
	params, err := e.BuildLimitOrder(intent, book, opts)
	if err != nil {
		return nil, err
	}

	if !opts.SkipApprovalCheck {
		if _, err := e.EnsureAllowance(ctx, params.OLKey.Inbound, e.contracts.OrderRouter, requiredSpend(intent)); err != nil {
			return nil, err
		}
	}

	data, err := e.routerABI.Pack("take",
		olKeyOf(params.OLKey), big.NewInt(params.Tick), params.FillVolume, params.FillWants,
		params.FillOrKill, params.PostOnly,
		new(big.Int).SetUint64(params.Expiry), new(big.Int).SetUint64(params.GasReq),
		params.BaseLogic, params.QuoteLogic)
	if err != nil {
		return nil, errors.Wrap(err, "pack take")
	}

	receipt, err := e.submit(ctx, e.contracts.OrderRouter, data, params.NativeValue, orderGasFallback)
	if err != nil {
		return nil, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.SubmissionFailedError{TxHash: receipt.TxHash, GasUsed: receipt.GasUsed}
	}

	result, err := e.decodeLimitResult(receipt, intent)
	if err != nil {
		return nil, err
	}

	log.WithField("tx", receipt.TxHash.Hex()).Info("limit order settled")
	e.recordOrder(id, intent, params, receipt, result)
	return &OrderOutcome{ClientID: id, Receipt: receipt, Result: result}, nil
}

// CancelLimitOrder retracts a resting offer. Retracting an offer that was
// already filled or cancelled settles with Removed=false, not an error. No
// authorization gate: a retraction spends no tokens.
func (e *Engine) CancelLimitOrder(ctx context.Context, market types.Market, dir types.Direction, offerID *big.Int, deprovision bool) (*CancelOutcome, error) {
	if offerID == nil || offerID.Sign() <= 0 {
		return nil, errors.New("offer id must be positive")
	}

	id := uuid.NewString()
	params := BuildCancellation(market, dir, offerID, deprovision)

	data, err := e.exchangeABI.Pack("retractOffer", olKeyOf(params.OLKey), params.OfferID, params.Deprovision)
	if err != nil {
		return nil, errors.Wrap(err, "pack retractOffer")
	}

	receipt, err := e.submit(ctx, e.contracts.Exchange, data, nil, orderGasFallback)
	if err != nil {
		return nil, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.SubmissionFailedError{TxHash: receipt.TxHash, GasUsed: receipt.GasUsed}
	}

	result, err := e.decodeCancelResult(receipt, params)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"call": id, "offer": offerID.String(), "removed": result.Removed,
	}).Info("offer retraction settled")
	return &CancelOutcome{ClientID: id, Receipt: receipt, Result: result}, nil
}

// requiredSpend is the known lower bound on what the taker gives: the fill
// volume when it denotes the given asset, unknown otherwise. Advisory only;
// the gate approves max regardless.
func requiredSpend(intent types.TradeIntent) *big.Int {
	if !intent.FillWants {
		return intent.FillVolume
	}
	return nil
}

// recordOrder journals a settled order. Best effort: a journal failure never
// fails the trade.
func (e *Engine) recordOrder(id string, intent types.TradeIntent, params *types.OrderParams, receipt *ethtypes.Receipt, result *types.TradeResult) {
	if e.journal == nil {
		return
	}

	entry := journal.Entry{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Market:     intent.Market.Base.Symbol + "/" + intent.Market.Quote.Symbol,
		Direction:  string(intent.Direction),
		Kind:       string(params.Kind),
		Tick:       params.Tick,
		FillVolume: params.FillVolume.String(),
		TxHash:     receipt.TxHash.Hex(),
		Got:        result.Got.String(),
		Gave:       result.Gave.String(),
		Fee:        result.Fee.String(),
		Bounty:     result.Bounty.String(),
	}
	if result.Offer != nil {
		entry.OfferID = result.Offer.ID.String()
	}
	if err := e.journal.Record(entry); err != nil {
		e.log.WithError(err).Warn("journal write failed")
	}
}
