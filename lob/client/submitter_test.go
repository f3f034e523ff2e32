package client

import (
	"context"
	"math/big"
	"testing"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

func TestSubmitSignsAndDispatches(t *testing.T) {
	backend := newFakeBackend(t)
	backend.nonce = 7
	realtime := &fakeRealtime{}
	realtime.queue(successReceipt())
	eng := newTestEngine(t, backend, realtime, Options{})

	receipt, err := eng.submit(context.Background(), testContracts.Exchange, []byte{0x01, 0x02}, nil, orderGasFallback)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		t.Error("want successful receipt")
	}

	if len(realtime.submitted) != 1 {
		t.Fatalf("submitted %d transactions, want 1", len(realtime.submitted))
	}
	tx := realtime.submitted[0]
	if tx.Nonce() != 7 {
		t.Errorf("nonce = %d, want the node's pending nonce 7", tx.Nonce())
	}
	if tx.Gas() != backend.gasEstimate {
		t.Errorf("gas = %d, want the node estimate %d", tx.Gas(), backend.gasEstimate)
	}

	// The dispatched transaction must carry a valid signature for the
	// engine's account on its chain.
	signer := ethtypes.NewEIP155Signer(big.NewInt(int64(31337)))
	from, err := ethtypes.Sender(signer, tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if from != eng.Account() {
		t.Errorf("signed by %s, want %s", from.Hex(), eng.Account().Hex())
	}
}

func TestSubmitGasEstimateFallback(t *testing.T) {
	backend := newFakeBackend(t)
	backend.estimateErr = errors.New("execution reverted during estimation")
	realtime := &fakeRealtime{}
	realtime.queue(successReceipt())
	eng := newTestEngine(t, backend, realtime, Options{})

	if _, err := eng.submit(context.Background(), testContracts.Exchange, nil, nil, 555_000); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gas := realtime.submitted[0].Gas(); gas != 555_000 {
		t.Errorf("gas = %d, want the per-call fallback", gas)
	}
}

func TestSubmitReturnsRevertedReceipt(t *testing.T) {
	realtime := &fakeRealtime{}
	realtime.queue(revertedReceipt())
	eng := newTestEngine(t, newFakeBackend(t), realtime, Options{})

	// A revert is a terminal state with a receipt, not a transport error;
	// the caller maps it onto its own error taxonomy.
	receipt, err := eng.submit(context.Background(), testContracts.Exchange, nil, nil, orderGasFallback)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusFailed {
		t.Error("want the reverted receipt back")
	}
}

func TestSubmitTimesOutOnStalledChannel(t *testing.T) {
	realtime := &fakeRealtime{stall: true}
	eng := newTestEngine(t, newFakeBackend(t), realtime, Options{SubmitTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := eng.submit(context.Background(), testContracts.Exchange, nil, nil, orderGasFallback)
	if err == nil {
		t.Fatal("want an error from the stalled channel")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want a deadline error", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("submit blocked for %s, want a fast failure", elapsed)
	}
}

func TestTxStateString(t *testing.T) {
	states := map[TxState]string{
		TxBuilt:      "built",
		TxPrepared:   "prepared",
		TxSigned:     "signed",
		TxSubmitted:  "submitted",
		TxFinalized:  "finalized",
		TxReverted:   "reverted",
		TxState(100): "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("TxState(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
