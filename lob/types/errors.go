package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// InvalidPriceError rejects a price before any network call is made.
type InvalidPriceError struct {
	Price  decimal.Decimal
	Reason string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %s: %s", e.Price, e.Reason)
}

// AuthorizationError reports a reverted authorization transaction.
type AuthorizationError struct {
	Token   common.Address
	Spender common.Address
	TxHash  common.Hash
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("approval of %s for spender %s reverted (tx %s)",
		e.Token.Hex(), e.Spender.Hex(), e.TxHash.Hex())
}

// SubmissionFailedError reports a reverted order transaction. The caller
// decides whether to retry with adjusted parameters.
type SubmissionFailedError struct {
	TxHash  common.Hash
	GasUsed uint64
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("order transaction reverted (tx %s, gas used %d)", e.TxHash.Hex(), e.GasUsed)
}

// ResultNotFoundError means a non-reverted receipt lacks the expected
// settlement event. This is an invariant violation, not a normal outcome.
type ResultNotFoundError struct {
	TxHash common.Hash
	Event  string
}

func (e *ResultNotFoundError) Error() string {
	return fmt.Sprintf("no %s event in successful receipt %s", e.Event, e.TxHash.Hex())
}

// StaleBookError rejects a book snapshot that is structurally incompatible
// with the market it was supplied for.
type StaleBookError struct {
	Reason string
}

func (e *StaleBookError) Error() string {
	return "stale book snapshot: " + e.Reason
}
