package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TradeIntent expresses a trade in human terms. Created per call, never
// persisted.
type TradeIntent struct {
	Market    Market
	Direction Direction

	// FillVolume is the fill target in the smallest unit of the asset it
	// denotes; FillWants picks which asset that is (true = the wanted asset,
	// false = the given asset).
	FillVolume *big.Int
	FillWants  bool

	// MaxPrice caps the execution price of a market order, in human
	// quote-per-base terms. Nil means unbounded (max-tick sentinel).
	MaxPrice *decimal.Decimal

	// LimitPrice is the exact price of a resting limit order.
	LimitPrice decimal.Decimal
}

// OrderOptions tune a single orchestrator call.
type OrderOptions struct {
	// SkipApprovalCheck bypasses the authorization gate. Only safe when the
	// caller has pre-authorized the spender out of band.
	SkipApprovalCheck bool

	// PostOnly tags a limit order for rejection at the settlement layer if
	// it would match immediately. The tag is forwarded, not pre-validated.
	PostOnly bool

	// FillOrKill makes a limit order revert unless fully matched.
	FillOrKill bool

	// Expiry is a unix timestamp after which the resting offer is void.
	// Zero means no expiry.
	Expiry uint64

	// RestingGasReq overrides the gas provisioned for the resting offer's
	// future execution. Zero selects the engine default.
	RestingGasReq uint64

	// BaseLogic/QuoteLogic select custom routing-logic contracts for fund
	// custody per asset. Zero address means no custom logic.
	BaseLogic  common.Address
	QuoteLogic common.Address

	// NativeValue is attached to the order transaction as provision for the
	// resting offer. Nil means none.
	NativeValue *big.Int
}

// OrderKind discriminates OrderParams.
type OrderKind string

const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
	OrderKindCancel OrderKind = "cancel"
)

// OrderParams is the protocol-native parameter set for one call. Constructed
// fresh per call and never mutated after construction.
type OrderParams struct {
	Kind OrderKind

	OLKey      OLKey
	Tick       int64
	FillVolume *big.Int
	FillWants  bool

	// Limit order extras.
	FillOrKill  bool
	PostOnly    bool
	Expiry      uint64
	GasReq      uint64
	BaseLogic   common.Address
	QuoteLogic  common.Address
	NativeValue *big.Int

	// Cancellation.
	OfferID     *big.Int
	Deprovision bool
}
