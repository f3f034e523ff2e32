package client

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
)

var testContracts = ContractConfig{
	Exchange:    common.HexToAddress("0x00000000000000000000000000000000000000E1"),
	OrderRouter: common.HexToAddress("0x00000000000000000000000000000000000000E2"),
	Reader:      common.HexToAddress("0x00000000000000000000000000000000000000E3"),
	Multicall:   common.HexToAddress("0x00000000000000000000000000000000000000E4"),
}

var testMarket = types.Market{
	Base:        types.Asset{Address: common.HexToAddress("0x00000000000000000000000000000000000000B1"), Symbol: "WETH", Decimals: 18},
	Quote:       types.Asset{Address: common.HexToAddress("0x00000000000000000000000000000000000000B2"), Symbol: "USDC", Decimals: 6},
	TickSpacing: 1,
}

func mustABI(t *testing.T, js string) abi.ABI {
	t.Helper()
	a, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		t.Fatalf("parse test ABI: %v", err)
	}
	return a
}

// devWallet signs with a fixed well-known devnet key, so tests are
// deterministic and signatures are real.
type devWallet struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

func newTestWallet(t *testing.T) *devWallet {
	t.Helper()
	priv, err := crypto.HexToECDSA("59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
	if err != nil {
		t.Fatalf("parse test key: %v", err)
	}
	return &devWallet{priv: priv, addr: crypto.PubkeyToAddress(priv.PublicKey)}
}

func (w *devWallet) Address() common.Address { return w.addr }

func (w *devWallet) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), w.priv)
}

// fakeBackend serves reads and gas estimation from in-memory state.
type fakeBackend struct {
	nonce       uint64
	gasEstimate uint64
	estimateErr error

	allowances map[string]*big.Int
	balances   map[common.Address]*big.Int

	asksConfig types.SemibookConfig
	bidsConfig types.SemibookConfig
	global     types.GlobalConfig
	userRouter common.Address

	readErr error

	erc20ABI     abi.ABI
	readerABI    abi.ABI
	routerABI    abi.ABI
	multicallABI abi.ABI
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	return &fakeBackend{
		gasEstimate: 100_000,
		allowances:  map[string]*big.Int{},
		balances:    map[common.Address]*big.Int{},
		asksConfig: types.SemibookConfig{
			Active: true, Fee: 10, Density: big.NewInt(1), OfferGasbase: 200_000, TickSpacing: testMarket.TickSpacing,
		},
		bidsConfig: types.SemibookConfig{
			Active: true, Fee: 10, Density: big.NewInt(1), OfferGasbase: 200_000, TickSpacing: testMarket.TickSpacing,
		},
		global:       types.GlobalConfig{Dead: false, GasPrice: 1, GasMax: 2_000_000},
		erc20ABI:     mustABI(t, erc20ABIJSON),
		readerABI:    mustABI(t, readerABIJSON),
		routerABI:    mustABI(t, routerABIJSON),
		multicallABI: mustABI(t, multicallABIJSON),
	}
}

func allowanceKey(token, spender common.Address) string {
	return token.Hex() + "/" + spender.Hex()
}

func (b *fakeBackend) setAllowance(token, spender common.Address, v *big.Int) {
	b.allowances[allowanceKey(token, spender)] = v
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n := b.nonce
	b.nonce++
	return n, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return b.gasEstimate, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	if msg.To == nil {
		return nil, errors.New("fake backend: nil call target")
	}
	if *msg.To == testContracts.Multicall {
		return b.answerAggregate(msg.Data)
	}
	return b.answer(*msg.To, msg.Data)
}

func (b *fakeBackend) answerAggregate(data []byte) ([]byte, error) {
	method := b.multicallABI.Methods["aggregate"]
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(err, "fake backend: unpack aggregate")
	}

	rawCalls := *abi.ConvertType(vals[0], new([]mcCall)).(*[]mcCall)

	// bookConfig is dispatched by call order within one batch: asks first.
	bookCalls := 0
	results := make([][]byte, 0, len(rawCalls))
	for _, c := range rawCalls {
		out, err := b.answerInner(c.Target, c.CallData, &bookCalls)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return method.Outputs.Pack(big.NewInt(1), results)
}

func (b *fakeBackend) answer(target common.Address, data []byte) ([]byte, error) {
	bookCalls := 0
	return b.answerInner(target, data, &bookCalls)
}

func (b *fakeBackend) answerInner(target common.Address, data []byte, bookCalls *int) ([]byte, error) {
	selector := data[:4]

	if m := b.erc20ABI.Methods["allowance"]; bytesEq(selector, m.ID) {
		in, err := m.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		spender := in[1].(common.Address)
		v := b.allowances[allowanceKey(target, spender)]
		if v == nil {
			v = big.NewInt(0)
		}
		return m.Outputs.Pack(v)
	}
	if m := b.erc20ABI.Methods["balanceOf"]; bytesEq(selector, m.ID) {
		v := b.balances[target]
		if v == nil {
			v = big.NewInt(0)
		}
		return m.Outputs.Pack(v)
	}
	if m := b.readerABI.Methods["bookConfig"]; bytesEq(selector, m.ID) {
		cfg := b.asksConfig
		if *bookCalls > 0 {
			cfg = b.bidsConfig
		}
		*bookCalls++
		return m.Outputs.Pack(cfg.Active, new(big.Int).SetUint64(cfg.Fee), cfg.Density,
			new(big.Int).SetUint64(cfg.OfferGasbase), new(big.Int).SetUint64(cfg.TickSpacing))
	}
	if m := b.readerABI.Methods["globalConfig"]; bytesEq(selector, m.ID) {
		return m.Outputs.Pack(b.global.Dead,
			new(big.Int).SetUint64(b.global.GasPrice), new(big.Int).SetUint64(b.global.GasMax))
	}
	if m := b.routerABI.Methods["userRouter"]; bytesEq(selector, m.ID) {
		return m.Outputs.Pack(b.userRouter)
	}
	return nil, errors.Errorf("fake backend: unexpected call to %s", target.Hex())
}

func bytesEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fakeRealtime returns queued receipts in order and records every submitted
// transaction.
type fakeRealtime struct {
	receipts  []*ethtypes.Receipt
	err       error
	stall     bool // block until the context expires
	submitted []*ethtypes.Transaction
}

func (f *fakeRealtime) SubmitRealtime(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	if f.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.submitted = append(f.submitted, tx)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.receipts) == 0 {
		return nil, errors.New("fake realtime: no receipt queued")
	}
	r := f.receipts[0]
	f.receipts = f.receipts[1:]
	return r, nil
}

func (f *fakeRealtime) queue(r *ethtypes.Receipt) { f.receipts = append(f.receipts, r) }

func newTestEngine(t *testing.T, b Backend, r RealtimeChannel, opts Options) *Engine {
	t.Helper()
	eng, err := New(b, r, newTestWallet(t), types.ChainDevnet, testContracts, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func successReceipt(logs ...*ethtypes.Log) *ethtypes.Receipt {
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x0101"),
		BlockNumber: big.NewInt(42),
		GasUsed:     90_000,
		Logs:        logs,
	}
}

func revertedReceipt() *ethtypes.Receipt {
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusFailed,
		TxHash:      common.HexToHash("0x0bad"),
		BlockNumber: big.NewInt(42),
		GasUsed:     1_500_000,
	}
}

func packEventData(t *testing.T, a abi.ABI, event string, vals ...interface{}) []byte {
	t.Helper()
	data, err := a.Events[event].Inputs.NonIndexed().Pack(vals...)
	if err != nil {
		t.Fatalf("pack %s data: %v", event, err)
	}
	return data
}

func orderCompleteLog(t *testing.T, keyHash common.Hash, taker common.Address, got, gave, penalty, fee int64) *ethtypes.Log {
	t.Helper()
	a := mustABI(t, exchangeABIJSON)
	return &ethtypes.Log{
		Address: testContracts.Exchange,
		Topics:  []common.Hash{a.Events["OrderComplete"].ID, keyHash, addressTopic(taker)},
		Data: packEventData(t, a, "OrderComplete",
			big.NewInt(got), big.NewInt(gave), big.NewInt(penalty), big.NewInt(fee)),
	}
}

func newRestingOfferLog(t *testing.T, keyHash common.Hash, owner common.Address, offerID, tick, gives, wants int64) *ethtypes.Log {
	t.Helper()
	a := mustABI(t, routerABIJSON)
	return &ethtypes.Log{
		Address: testContracts.OrderRouter,
		Topics:  []common.Hash{a.Events["NewRestingOffer"].ID, keyHash, addressTopic(owner)},
		Data: packEventData(t, a, "NewRestingOffer",
			big.NewInt(offerID), big.NewInt(tick), big.NewInt(gives), big.NewInt(wants),
			big.NewInt(1), big.NewInt(160_000), big.NewInt(0)),
	}
}

func offerRetractLog(t *testing.T, keyHash common.Hash, maker common.Address, offerID int64, deprovision bool) *ethtypes.Log {
	t.Helper()
	a := mustABI(t, exchangeABIJSON)
	return &ethtypes.Log{
		Address: testContracts.Exchange,
		Topics:  []common.Hash{a.Events["OfferRetract"].ID, keyHash, addressTopic(maker)},
		Data:    packEventData(t, a, "OfferRetract", big.NewInt(offerID), deprovision),
	}
}
