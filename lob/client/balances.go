package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
)

// GetBalances reads the account's balance of every distinct asset across the
// given markets in one batched call.
func (e *Engine) GetBalances(ctx context.Context, markets []types.Market) (map[common.Address]*big.Int, error) {
	owner := e.wallet.Address()

	seen := make(map[common.Address]bool)
	var assets []common.Address
	for _, m := range markets {
		for _, a := range []common.Address{m.Base.Address, m.Quote.Address} {
			if !seen[a] {
				seen[a] = true
				assets = append(assets, a)
			}
		}
	}

	calls := make([]mcCall, 0, len(assets))
	for _, a := range assets {
		data, err := e.erc20ABI.Pack("balanceOf", owner)
		if err != nil {
			return nil, errors.Wrap(err, "pack balanceOf")
		}
		calls = append(calls, mcCall{Target: a, CallData: data})
	}

	raw, err := e.multicallRead(ctx, calls)
	if err != nil {
		return nil, err
	}

	balances := make(map[common.Address]*big.Int, len(assets))
	for i, a := range assets {
		var bal *big.Int
		if err := e.erc20ABI.UnpackIntoInterface(&bal, "balanceOf", raw[i]); err != nil {
			return nil, errors.Wrapf(err, "unpack balanceOf %s", a.Hex())
		}
		balances[a] = bal
	}
	return balances, nil
}
