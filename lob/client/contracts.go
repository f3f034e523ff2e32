package client

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/godex/lob/types"
)

// ContractConfig pins the fixed protocol addresses the engine talks to.
// Passed explicitly at construction; no process-wide defaults.
type ContractConfig struct {
	Exchange    common.Address // core order book contract
	OrderRouter common.Address // resting-order router (limit order custody)
	Reader      common.Address // read-side helper (book/config snapshots)
	Multicall   common.Address // Multicall3-style aggregator
}

// MegaTestnetContracts are the deployment addresses on the MegaETH testnet.
var MegaTestnetContracts = ContractConfig{
	Exchange:    common.HexToAddress("0x3eA73cE6f60f1AE165c85bd2c2e06e45C0a36361"),
	OrderRouter: common.HexToAddress("0x6cE1a09aAa1fdBe482a99ed2d40f7b547efA9cBC"),
	Reader:      common.HexToAddress("0x9Bf80c367Ef9526bc1a40b5730C1F33a3Eab5a61"),
	Multicall:   common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
}

// DevnetContracts match the local anvil deployment used in integration runs.
var DevnetContracts = ContractConfig{
	Exchange:    common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	OrderRouter: common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
	Reader:      common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
	Multicall:   common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"),
}

// GetContractConfig returns the pinned deployment for a chain.
func GetContractConfig(chain types.Chain) (*ContractConfig, error) {
	switch chain {
	case types.ChainMegaTestnet:
		return &MegaTestnetContracts, nil
	case types.ChainDevnet:
		return &DevnetContracts, nil
	default:
		return nil, fmt.Errorf("no contract config for chain id %d", chain)
	}
}

// olKeyArg mirrors the on-chain OLKey tuple for ABI packing.
type olKeyArg struct {
	Outbound    common.Address
	Inbound     common.Address
	TickSpacing *big.Int
}

func olKeyOf(k types.OLKey) olKeyArg {
	return olKeyArg{
		Outbound:    k.Outbound,
		Inbound:     k.Inbound,
		TickSpacing: new(big.Int).SetUint64(k.TickSpacing),
	}
}

const exchangeABIJSON = `[
  {"inputs":[
      {"name":"olKey","type":"tuple","components":[
        {"name":"outbound","type":"address"},
        {"name":"inbound","type":"address"},
        {"name":"tickSpacing","type":"uint256"}]},
      {"name":"maxTick","type":"int256"},
      {"name":"fillVolume","type":"uint256"},
      {"name":"fillWants","type":"bool"}],
   "name":"marketOrderByTick",
   "outputs":[
      {"name":"takerGot","type":"uint256"},
      {"name":"takerGave","type":"uint256"},
      {"name":"bounty","type":"uint256"},
      {"name":"feePaid","type":"uint256"}],
   "stateMutability":"nonpayable","type":"function"},
  {"inputs":[
      {"name":"olKey","type":"tuple","components":[
        {"name":"outbound","type":"address"},
        {"name":"inbound","type":"address"},
        {"name":"tickSpacing","type":"uint256"}]},
      {"name":"offerId","type":"uint256"},
      {"name":"deprovision","type":"bool"}],
   "name":"retractOffer",
   "outputs":[{"name":"provision","type":"uint256"}],
   "stateMutability":"nonpayable","type":"function"},
  {"anonymous":false,"inputs":[
      {"indexed":true,"name":"olKeyHash","type":"bytes32"},
      {"indexed":true,"name":"taker","type":"address"},
      {"indexed":false,"name":"takerGot","type":"uint256"},
      {"indexed":false,"name":"takerGave","type":"uint256"},
      {"indexed":false,"name":"penalty","type":"uint256"},
      {"indexed":false,"name":"feePaid","type":"uint256"}],
   "name":"OrderComplete","type":"event"},
  {"anonymous":false,"inputs":[
      {"indexed":true,"name":"olKeyHash","type":"bytes32"},
      {"indexed":true,"name":"maker","type":"address"},
      {"indexed":false,"name":"id","type":"uint256"},
      {"indexed":false,"name":"deprovision","type":"bool"}],
   "name":"OfferRetract","type":"event"}
]`

const routerABIJSON = `[
  {"inputs":[
      {"name":"olKey","type":"tuple","components":[
        {"name":"outbound","type":"address"},
        {"name":"inbound","type":"address"},
        {"name":"tickSpacing","type":"uint256"}]},
      {"name":"tick","type":"int256"},
      {"name":"fillVolume","type":"uint256"},
      {"name":"fillWants","type":"bool"},
      {"name":"fillOrKill","type":"bool"},
      {"name":"postOnly","type":"bool"},
      {"name":"expiryDate","type":"uint256"},
      {"name":"gasreq","type":"uint256"},
      {"name":"baseLogic","type":"address"},
      {"name":"quoteLogic","type":"address"}],
   "name":"take","outputs":[],
   "stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"user","type":"address"}],
   "name":"userRouter",
   "outputs":[{"name":"","type":"address"}],
   "stateMutability":"view","type":"function"},
  {"anonymous":false,"inputs":[
      {"indexed":true,"name":"olKeyHash","type":"bytes32"},
      {"indexed":true,"name":"owner","type":"address"},
      {"indexed":false,"name":"offerId","type":"uint256"},
      {"indexed":false,"name":"tick","type":"int256"},
      {"indexed":false,"name":"gives","type":"uint256"},
      {"indexed":false,"name":"wants","type":"uint256"},
      {"indexed":false,"name":"gasprice","type":"uint256"},
      {"indexed":false,"name":"gasreq","type":"uint256"},
      {"indexed":false,"name":"expiry","type":"uint256"}],
   "name":"NewRestingOffer","type":"event"}
]`

const readerABIJSON = `[
  {"inputs":[
      {"name":"olKey","type":"tuple","components":[
        {"name":"outbound","type":"address"},
        {"name":"inbound","type":"address"},
        {"name":"tickSpacing","type":"uint256"}]}],
   "name":"bookConfig",
   "outputs":[
      {"name":"active","type":"bool"},
      {"name":"fee","type":"uint256"},
      {"name":"density","type":"uint256"},
      {"name":"offerGasbase","type":"uint256"},
      {"name":"tickSpacing","type":"uint256"}],
   "stateMutability":"view","type":"function"},
  {"inputs":[],
   "name":"globalConfig",
   "outputs":[
      {"name":"dead","type":"bool"},
      {"name":"gasprice","type":"uint256"},
      {"name":"gasmax","type":"uint256"}],
   "stateMutability":"view","type":"function"}
]`

const erc20ABIJSON = `[
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const multicallABIJSON = `[
  {"inputs":[
      {"name":"calls","type":"tuple[]","components":[
        {"name":"target","type":"address"},
        {"name":"callData","type":"bytes"}]}],
   "name":"aggregate",
   "outputs":[
      {"name":"blockNumber","type":"uint256"},
      {"name":"returnData","type":"bytes[]"}],
   "stateMutability":"view","type":"function"}
]`
