package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// TxState tracks one transaction through the submission pipeline.
type TxState int

const (
	TxBuilt TxState = iota
	TxPrepared
	TxSigned
	TxSubmitted
	TxFinalized
	TxReverted
)

func (s TxState) String() string {
	switch s {
	case TxBuilt:
		return "built"
	case TxPrepared:
		return "prepared"
	case TxSigned:
		return "signed"
	case TxSubmitted:
		return "submitted"
	case TxFinalized:
		return "finalized"
	case TxReverted:
		return "reverted"
	}
	return "unknown"
}

// txEnvelope carries one call's transaction through the state machine. Owned
// by a single submit call; never shared.
type txEnvelope struct {
	state       TxState
	to          common.Address
	data        []byte
	value       *big.Int
	gasFallback uint64
	tx          *ethtypes.Transaction
}

// submit drives Built -> Prepared -> Signed -> Submitted -> Finalized|Reverted.
// The receipt is returned for both terminal states; callers map a reverted
// status onto their own error taxonomy.
func (e *Engine) submit(ctx context.Context, to common.Address, data []byte, value *big.Int, gasFallback uint64) (*ethtypes.Receipt, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	env := &txEnvelope{state: TxBuilt, to: to, data: data, value: value, gasFallback: gasFallback}

	if err := e.prepare(ctx, env); err != nil {
		return nil, err
	}
	if err := e.sign(env); err != nil {
		return nil, err
	}
	return e.dispatch(ctx, env)
}

// prepare fills the nonce/gas/chain envelope via the node.
func (e *Engine) prepare(ctx context.Context, env *txEnvelope) error {
	from := e.wallet.Address()

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return errors.Wrap(err, "fetch nonce")
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch gas price")
	}
	gasLimit, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &env.to,
		Data:  env.data,
		Value: env.value,
	})
	if err != nil {
		// Some nodes refuse to estimate state-dependent calls; fall back to a
		// conservative per-call ceiling rather than failing the order.
		gasLimit = env.gasFallback
	}

	env.tx = ethtypes.NewTransaction(nonce, env.to, env.value, gasLimit, gasPrice, env.data)
	env.state = TxPrepared
	e.log.WithFields(map[string]interface{}{
		"state": env.state.String(),
		"nonce": nonce,
		"gas":   gasLimit,
	}).Debug("transaction prepared")
	return nil
}

func (e *Engine) sign(env *txEnvelope) error {
	signed, err := e.wallet.SignTx(env.tx, e.chainID)
	if err != nil {
		return errors.Wrap(err, "sign transaction")
	}
	env.tx = signed
	env.state = TxSigned
	return nil
}

// dispatch pushes the signed transaction through the realtime channel and
// waits for its synchronous receipt, bounded by the engine's submit timeout.
func (e *Engine) dispatch(ctx context.Context, env *txEnvelope) (*ethtypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.submitTimeout)
	defer cancel()

	env.state = TxSubmitted
	receipt, err := e.realtime.SubmitRealtime(ctx, env.tx)
	if err != nil {
		return nil, errors.Wrap(err, "realtime submission")
	}

	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		env.state = TxFinalized
	} else {
		env.state = TxReverted
	}
	e.log.WithFields(map[string]interface{}{
		"state": env.state.String(),
		"tx":    receipt.TxHash.Hex(),
		"block": receipt.BlockNumber,
	}).Debug("transaction settled")
	return receipt, nil
}

// RealtimeSender speaks the non-standard realtime_sendRawTransaction method:
// the node responds with the transaction's receipt once its outcome is
// known, skipping the generic broadcast/poll path entirely.
type RealtimeSender struct {
	c *rpc.Client
}

// NewRealtimeSender wraps an RPC client pointed at a realtime-capable node.
func NewRealtimeSender(c *rpc.Client) *RealtimeSender {
	return &RealtimeSender{c: c}
}

// SubmitRealtime serializes, sends and waits for the receipt in one call.
func (s *RealtimeSender) SubmitRealtime(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "serialize transaction")
	}

	var receipt *ethtypes.Receipt
	if err := s.c.CallContext(ctx, &receipt, "realtime_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, errors.New("realtime channel returned no receipt")
	}
	return receipt, nil
}
