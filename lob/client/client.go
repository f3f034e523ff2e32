// Package client implements the order translation & submission engine: it
// turns human trade intents into exchange-native transactions, gated behind
// token-spending authorization and dispatched through the realtime channel.
package client

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/godex/lob/types"
	"github.com/betbot/godex/pkg/journal"
)

var engineLog = logrus.WithField("component", "engine")

// Backend is the read/estimate surface of the chain node. *ethclient.Client
// satisfies it; tests use a fake.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// RealtimeChannel is the low-latency submission path. It returns a finalized
// receipt synchronously; there is no separate broadcast-then-poll step.
type RealtimeChannel interface {
	SubmitRealtime(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
}

// Wallet signs transactions for one account. The key never leaves it.
type Wallet interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

const (
	defaultSubmitTimeout = 30 * time.Second

	// Gas provisioned for a resting offer's future execution unless the
	// caller overrides it.
	defaultRestingGasReq uint64 = 160_000

	// Estimate fallbacks when the node's EstimateGas is unavailable.
	approveGasFallback uint64 = 120_000
	orderGasFallback   uint64 = 1_500_000
)

// Options tune engine construction.
type Options struct {
	// SubmitTimeout bounds the realtime channel's synchronous wait. Zero
	// selects the 30s default. A stalled channel fails fast; no retry.
	SubmitTimeout time.Duration

	// RestingGasReq overrides the default gas provisioned for resting offers.
	RestingGasReq uint64

	// Journal, when set, records every submitted order locally.
	Journal *journal.Journal
}

// Engine is the trading client. One instance per account; safe for
// concurrent calls only if the wallet's nonce source serializes per account.
type Engine struct {
	backend   Backend
	realtime  RealtimeChannel
	wallet    Wallet
	chainID   *big.Int
	contracts ContractConfig

	erc20ABI     abi.ABI
	exchangeABI  abi.ABI
	routerABI    abi.ABI
	readerABI    abi.ABI
	multicallABI abi.ABI

	submitTimeout time.Duration
	restingGasReq uint64
	journal       *journal.Journal
	log           *logrus.Entry
}

// New wires an engine from explicit collaborators. Dial is the production
// path; New is the seam for fakes.
func New(backend Backend, realtime RealtimeChannel, w Wallet, chain types.Chain, contracts ContractConfig, opts Options) (*Engine, error) {
	if backend == nil || realtime == nil || w == nil {
		return nil, errors.New("engine: backend, realtime channel and wallet are required")
	}

	e := &Engine{
		backend:       backend,
		realtime:      realtime,
		wallet:        w,
		chainID:       big.NewInt(int64(chain)),
		contracts:     contracts,
		submitTimeout: opts.SubmitTimeout,
		restingGasReq: opts.RestingGasReq,
		journal:       opts.Journal,
		log:           engineLog.WithField("account", w.Address().Hex()),
	}
	if e.submitTimeout <= 0 {
		e.submitTimeout = defaultSubmitTimeout
	}
	if e.restingGasReq == 0 {
		e.restingGasReq = defaultRestingGasReq
	}

	for _, a := range []struct {
		dst  *abi.ABI
		json string
		name string
	}{
		{&e.erc20ABI, erc20ABIJSON, "erc20"},
		{&e.exchangeABI, exchangeABIJSON, "exchange"},
		{&e.routerABI, routerABIJSON, "router"},
		{&e.readerABI, readerABIJSON, "reader"},
		{&e.multicallABI, multicallABIJSON, "multicall"},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.json))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s ABI", a.name)
		}
		*a.dst = parsed
	}

	return e, nil
}

// Dial connects both RPC endpoints and builds an engine. A nil contracts
// argument selects the pinned deployment for the chain.
func Dial(ctx context.Context, rpcURL, realtimeURL string, chain types.Chain, w Wallet, contracts *ContractConfig, opts Options) (*Engine, error) {
	if contracts == nil {
		cfg, err := GetContractConfig(chain)
		if err != nil {
			return nil, err
		}
		contracts = cfg
	}

	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc node")
	}

	rc, err := rpc.DialContext(ctx, realtimeURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial realtime endpoint")
	}

	return New(backend, NewRealtimeSender(rc), w, chain, *contracts, opts)
}

// Account returns the engine's trading account.
func (e *Engine) Account() common.Address {
	return e.wallet.Address()
}

// Contracts returns the pinned protocol addresses.
func (e *Engine) Contracts() ContractConfig {
	return e.contracts
}
