package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Chain identifies the target network.
type Chain int64

const (
	ChainMegaTestnet Chain = 6342
	ChainDevnet      Chain = 31337
)

// Direction is the taker's side of a trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Asset is one leg of a trading pair.
type Asset struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals int32          `json:"decimals"`
}

// Market is a base/quote pair together with the book's tick spacing.
// Immutable once obtained from market discovery.
type Market struct {
	Base        Asset  `json:"base"`
	Quote       Asset  `json:"quote"`
	TickSpacing uint64 `json:"tickSpacing"`
}

// OLKey identifies one semibook: the offer list delivering Outbound against
// Inbound at the given tick spacing.
type OLKey struct {
	Outbound    common.Address
	Inbound     common.Address
	TickSpacing uint64
}

// AskKey returns the ask semibook key (offers deliver base against quote).
// A buy intent consumes this side.
func (m Market) AskKey() OLKey {
	return OLKey{Outbound: m.Base.Address, Inbound: m.Quote.Address, TickSpacing: m.TickSpacing}
}

// BidKey returns the bid semibook key (offers deliver quote against base).
// A sell intent consumes this side.
func (m Market) BidKey() OLKey {
	return OLKey{Outbound: m.Quote.Address, Inbound: m.Base.Address, TickSpacing: m.TickSpacing}
}

// SemibookKey selects the semibook crossed by the given taker direction.
func (m Market) SemibookKey(dir Direction) OLKey {
	if dir == DirectionBuy {
		return m.AskKey()
	}
	return m.BidKey()
}

// RestingKey selects the semibook a limit order's unmatched remainder rests
// on: the mirror of the side it crossed. A buy crosses asks and rests as a
// bid, and vice versa.
func (m Market) RestingKey(dir Direction) OLKey {
	if dir == DirectionBuy {
		return m.BidKey()
	}
	return m.AskKey()
}

// Hash is the on-chain identifier of the offer list, used as the indexed
// topic in settlement events: keccak256(outbound ++ inbound ++ tickSpacing).
func (k OLKey) Hash() common.Hash {
	buf := make([]byte, 0, 72)
	buf = append(buf, k.Outbound.Bytes()...)
	buf = append(buf, k.Inbound.Bytes()...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(k.TickSpacing).Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// SemibookConfig is the per-offer-list configuration snapshot.
type SemibookConfig struct {
	Active       bool
	Fee          uint64 // taker fee in basis points
	Density      *big.Int
	OfferGasbase uint64
	TickSpacing  uint64
}

// GlobalConfig is the exchange-wide configuration snapshot.
type GlobalConfig struct {
	Dead     bool
	GasPrice uint64
	GasMax   uint64
}

// BookSnapshot bundles both semibook configs and the global config for one
// market, as returned by the reader contract.
type BookSnapshot struct {
	AsksConfig SemibookConfig
	BidsConfig SemibookConfig
	Global     GlobalConfig
}

// AuthorizationRecord is a read-only allowance snapshot for a token/spender
// pair. Staleness window is one query; callers re-query rather than cache.
type AuthorizationRecord struct {
	Token     common.Address
	Spender   common.Address
	Allowance *big.Int
}
