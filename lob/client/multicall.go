package client

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// mcCall mirrors Multicall3's Call tuple.
type mcCall struct {
	Target   common.Address
	CallData []byte
}

// multicallRead batches view calls through the aggregator in one RPC
// round-trip and returns the raw return data per call, in order.
func (e *Engine) multicallRead(ctx context.Context, calls []mcCall) ([][]byte, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	data, err := e.multicallABI.Pack("aggregate", calls)
	if err != nil {
		return nil, errors.Wrap(err, "pack aggregate")
	}

	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &e.contracts.Multicall, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "call aggregate")
	}

	vals, err := e.multicallABI.Unpack("aggregate", out)
	if err != nil {
		return nil, errors.Wrap(err, "unpack aggregate")
	}
	ret, ok := vals[1].([][]byte)
	if !ok {
		return nil, errors.New("aggregate: unexpected return shape")
	}
	if len(ret) != len(calls) {
		return nil, errors.Errorf("aggregate: %d results for %d calls", len(ret), len(calls))
	}
	return ret, nil
}
