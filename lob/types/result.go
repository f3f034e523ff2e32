package types

import (
	"math/big"
)

// RestingOffer describes the unmatched remainder of a limit order left on
// the book.
type RestingOffer struct {
	ID       *big.Int
	Tick     int64
	Gives    *big.Int // volume the offer delivers (outbound)
	Wants    *big.Int // volume the offer asks for (inbound)
	GasPrice uint64
	GasReq   uint64
	Expiry   uint64 // unix seconds, 0 = never
}

// TradeResult is the decoded settlement outcome of one order transaction.
// All amounts are in smallest units.
type TradeResult struct {
	Got    *big.Int // amount received by the taker
	Gave   *big.Int // amount paid by the taker
	Fee    *big.Int // taker fee withheld by the exchange
	Bounty *big.Int // penalty collected from failing makers

	// Offer is set only for limit orders that partially rested; nil when the
	// order fully matched.
	Offer *RestingOffer
}

// CancelResult reports the outcome of an offer retraction. Removed is false
// when the offer no longer existed, which is a benign no-op.
type CancelResult struct {
	Removed bool
}
