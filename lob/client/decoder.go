package client

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
)

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

// orderCompleteFor scans receipt logs for the settlement event of this
// taker on the given offer list. takers lists the acceptable taker topics
// (the account itself, or its router for resting orders).
func (e *Engine) orderCompleteFor(receipt *ethtypes.Receipt, olKeyHash common.Hash, takers []common.Address) (*types.TradeResult, bool, error) {
	eventID := e.exchangeABI.Events["OrderComplete"].ID

	for _, lg := range receipt.Logs {
		if lg.Address != e.contracts.Exchange || len(lg.Topics) < 3 || lg.Topics[0] != eventID {
			continue
		}
		if lg.Topics[1] != olKeyHash {
			continue
		}
		matched := false
		for _, t := range takers {
			if lg.Topics[2] == addressTopic(t) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		vals, err := e.exchangeABI.Unpack("OrderComplete", lg.Data)
		if err != nil {
			return nil, false, errors.Wrap(err, "unpack OrderComplete")
		}
		return &types.TradeResult{
			Got:    vals[0].(*big.Int),
			Gave:   vals[1].(*big.Int),
			Bounty: vals[2].(*big.Int),
			Fee:    vals[3].(*big.Int),
		}, true, nil
	}
	return nil, false, nil
}

// decodeMarketResult extracts the trade settlement from a market order
// receipt. A successful receipt without the event is an invariant violation.
func (e *Engine) decodeMarketResult(receipt *ethtypes.Receipt, intent types.TradeIntent) (*types.TradeResult, error) {
	key := intent.Market.SemibookKey(intent.Direction)
	result, ok, err := e.orderCompleteFor(receipt, key.Hash(), []common.Address{e.wallet.Address()})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ResultNotFoundError{TxHash: receipt.TxHash, Event: "OrderComplete"}
	}
	return result, nil
}

// decodeLimitResult extracts the settlement plus, when the order partially
// rested, the resulting offer. A fully matched order has no resting event;
// that is the normal case, not an error.
func (e *Engine) decodeLimitResult(receipt *ethtypes.Receipt, intent types.TradeIntent) (*types.TradeResult, error) {
	crossed := intent.Market.SemibookKey(intent.Direction)

	// The router executes the taker leg on the account's behalf, so the
	// settlement event may name either address.
	result, ok, err := e.orderCompleteFor(receipt, crossed.Hash(), []common.Address{
		e.wallet.Address(), e.contracts.OrderRouter,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ResultNotFoundError{TxHash: receipt.TxHash, Event: "OrderComplete"}
	}

	restingHash := intent.Market.RestingKey(intent.Direction).Hash()
	eventID := e.routerABI.Events["NewRestingOffer"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != e.contracts.OrderRouter || len(lg.Topics) < 3 || lg.Topics[0] != eventID {
			continue
		}
		if lg.Topics[1] != restingHash || lg.Topics[2] != addressTopic(e.wallet.Address()) {
			continue
		}

		vals, err := e.routerABI.Unpack("NewRestingOffer", lg.Data)
		if err != nil {
			return nil, errors.Wrap(err, "unpack NewRestingOffer")
		}
		result.Offer = &types.RestingOffer{
			ID:       vals[0].(*big.Int),
			Tick:     vals[1].(*big.Int).Int64(),
			Gives:    vals[2].(*big.Int),
			Wants:    vals[3].(*big.Int),
			GasPrice: vals[4].(*big.Int).Uint64(),
			GasReq:   vals[5].(*big.Int).Uint64(),
			Expiry:   vals[6].(*big.Int).Uint64(),
		}
		break
	}
	return result, nil
}

// decodeCancelResult reports whether the retraction actually removed an
// offer. No event means the offer was already gone - a benign no-op.
func (e *Engine) decodeCancelResult(receipt *ethtypes.Receipt, params *types.OrderParams) (types.CancelResult, error) {
	eventID := e.exchangeABI.Events["OfferRetract"].ID
	keyHash := params.OLKey.Hash()

	for _, lg := range receipt.Logs {
		if lg.Address != e.contracts.Exchange || len(lg.Topics) < 3 || lg.Topics[0] != eventID {
			continue
		}
		if lg.Topics[1] != keyHash || lg.Topics[2] != addressTopic(e.wallet.Address()) {
			continue
		}

		vals, err := e.exchangeABI.Unpack("OfferRetract", lg.Data)
		if err != nil {
			return types.CancelResult{}, errors.Wrap(err, "unpack OfferRetract")
		}
		if id := vals[0].(*big.Int); id.Cmp(params.OfferID) == 0 {
			return types.CancelResult{Removed: true}, nil
		}
	}
	return types.CancelResult{Removed: false}, nil
}
