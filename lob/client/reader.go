package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
)

// GetBook fetches both semibook configs and the global config for a market
// in one batched read against the reader contract.
func (e *Engine) GetBook(ctx context.Context, market types.Market) (*types.BookSnapshot, error) {
	askData, err := e.readerABI.Pack("bookConfig", olKeyOf(market.AskKey()))
	if err != nil {
		return nil, errors.Wrap(err, "pack bookConfig(asks)")
	}
	bidData, err := e.readerABI.Pack("bookConfig", olKeyOf(market.BidKey()))
	if err != nil {
		return nil, errors.Wrap(err, "pack bookConfig(bids)")
	}
	globalData, err := e.readerABI.Pack("globalConfig")
	if err != nil {
		return nil, errors.Wrap(err, "pack globalConfig")
	}

	raw, err := e.multicallRead(ctx, []mcCall{
		{Target: e.contracts.Reader, CallData: askData},
		{Target: e.contracts.Reader, CallData: bidData},
		{Target: e.contracts.Reader, CallData: globalData},
	})
	if err != nil {
		return nil, err
	}

	snapshot := &types.BookSnapshot{}
	if snapshot.AsksConfig, err = e.unpackBookConfig(raw[0]); err != nil {
		return nil, errors.Wrap(err, "asks config")
	}
	if snapshot.BidsConfig, err = e.unpackBookConfig(raw[1]); err != nil {
		return nil, errors.Wrap(err, "bids config")
	}

	vals, err := e.readerABI.Unpack("globalConfig", raw[2])
	if err != nil {
		return nil, errors.Wrap(err, "unpack globalConfig")
	}
	snapshot.Global = types.GlobalConfig{
		Dead:     vals[0].(bool),
		GasPrice: vals[1].(*big.Int).Uint64(),
		GasMax:   vals[2].(*big.Int).Uint64(),
	}
	return snapshot, nil
}

func (e *Engine) unpackBookConfig(data []byte) (types.SemibookConfig, error) {
	vals, err := e.readerABI.Unpack("bookConfig", data)
	if err != nil {
		return types.SemibookConfig{}, err
	}
	return types.SemibookConfig{
		Active:       vals[0].(bool),
		Fee:          vals[1].(*big.Int).Uint64(),
		Density:      vals[2].(*big.Int),
		OfferGasbase: vals[3].(*big.Int).Uint64(),
		TickSpacing:  vals[4].(*big.Int).Uint64(),
	}, nil
}

// GetUserRouter resolves the routing contract holding fund custody for a
// user's resting orders.
func (e *Engine) GetUserRouter(ctx context.Context, user common.Address) (common.Address, error) {
	data, err := e.routerABI.Pack("userRouter", user)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "pack userRouter")
	}
	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &e.contracts.OrderRouter, Data: data}, nil)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "call userRouter")
	}

	var router common.Address
	if err := e.routerABI.UnpackIntoInterface(&router, "userRouter", out); err != nil {
		return common.Address{}, errors.Wrap(err, "unpack userRouter")
	}
	return router, nil
}
