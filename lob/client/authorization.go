package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// unlimitedThreshold is the "effectively infinite" allowance floor. The
	// gate compares against this rather than the exact required amount so
	// one approval covers all subsequent calls.
	unlimitedThreshold = new(big.Int).Lsh(big.NewInt(1), 200)
)

// Allowance reads the current allowance for one token/spender pair. One
// query, no caching across calls.
func (e *Engine) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	records, err := e.GetApprovals(ctx, []types.AuthorizationRecord{{Token: token, Spender: spender}})
	if err != nil {
		return nil, err
	}
	return records[0].Allowance, nil
}

// EnsureAllowance is the authorization gate: if the spender's allowance is
// below the unlimited threshold, it submits approve(max-uint256) and waits
// for it to finalize. Returns the approval receipt, or nil when no action
// was needed. A reverted approval is an AuthorizationError.
//
// requiredAtLeast is advisory (logged); the gate always raises to max.
func (e *Engine) EnsureAllowance(ctx context.Context, token, spender common.Address, requiredAtLeast *big.Int) (*ethtypes.Receipt, error) {
	current, err := e.Allowance(ctx, token, spender)
	if err != nil {
		return nil, err
	}
	if current.Cmp(unlimitedThreshold) >= 0 {
		return nil, nil
	}

	log := e.log.WithFields(map[string]interface{}{
		"token":   token.Hex(),
		"spender": spender.Hex(),
	})
	if requiredAtLeast != nil {
		log = log.WithField("required", requiredAtLeast.String())
	}
	log.Info("allowance below threshold, approving max")

	data, err := e.erc20ABI.Pack("approve", spender, maxUint256)
	if err != nil {
		return nil, errors.Wrap(err, "pack approve")
	}
	receipt, err := e.submit(ctx, token, data, nil, approveGasFallback)
	if err != nil {
		return nil, errors.Wrap(err, "submit approval")
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.AuthorizationError{Token: token, Spender: spender, TxHash: receipt.TxHash}
	}
	return receipt, nil
}

// GetApprovals reads the allowance for each token/spender pair in one
// batched call. Input records only need Token and Spender set.
func (e *Engine) GetApprovals(ctx context.Context, pairs []types.AuthorizationRecord) ([]types.AuthorizationRecord, error) {
	owner := e.wallet.Address()
	calls := make([]mcCall, 0, len(pairs))
	for _, p := range pairs {
		data, err := e.erc20ABI.Pack("allowance", owner, p.Spender)
		if err != nil {
			return nil, errors.Wrap(err, "pack allowance")
		}
		calls = append(calls, mcCall{Target: p.Token, CallData: data})
	}

	raw, err := e.multicallRead(ctx, calls)
	if err != nil {
		return nil, err
	}

	out := make([]types.AuthorizationRecord, len(pairs))
	for i, p := range pairs {
		var allowance *big.Int
		if err := e.erc20ABI.UnpackIntoInterface(&allowance, "allowance", raw[i]); err != nil {
			return nil, errors.Wrapf(err, "unpack allowance of %s", p.Token.Hex())
		}
		out[i] = types.AuthorizationRecord{Token: p.Token, Spender: p.Spender, Allowance: allowance}
	}
	return out, nil
}

// GiveApprovalTo raises an approval explicitly, outside the gate. A nil
// amount approves max-uint256.
func (e *Engine) GiveApprovalTo(ctx context.Context, token, spender common.Address, amount *big.Int) (*ethtypes.Receipt, error) {
	if amount == nil {
		amount = maxUint256
	}
	data, err := e.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, errors.Wrap(err, "pack approve")
	}
	receipt, err := e.submit(ctx, token, data, nil, approveGasFallback)
	if err != nil {
		return nil, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.AuthorizationError{Token: token, Spender: spender, TxHash: receipt.TxHash}
	}
	return receipt, nil
}
