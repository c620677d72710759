package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABI methods
const (
	MethodBalanceOf = "balanceOf"
	MethodAllowance = "allowance"
	MethodApprove   = "approve"
	MethodName      = "name"
	MethodSymbol    = "symbol"
	MethodDecimals  = "decimals"

	MethodGetCountryPrice = "getCountryPrice"
	MethodIsCountryActive = "isCountryActive"

	MethodDeposit              = "deposit"
	MethodWithdraw             = "withdraw"
	MethodOpenLongPosition     = "openLongPosition"
	MethodOpenShortPosition    = "openShortPosition"
	MethodClosePosition        = "closePosition"
	MethodClosePositionPartial = "closePositionPartial"
	MethodIncreaseCollateral   = "increaseCollateral"
	MethodLiquidatePosition    = "liquidatePosition"

	MethodGetPoolMetrics = "getPoolMetrics"
	MethodPaused         = "paused"

	EventPositionOpened = "PositionOpened"
)

// ERC20ABIJSON covers the token methods the SDK uses.
const ERC20ABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// CountryRegistryABIJSON covers price and status lookups.
const CountryRegistryABIJSON = `[
	{"name":"getCountryPrice","type":"function","stateMutability":"view",
	 "inputs":[{"name":"countryCode","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"isCountryActive","type":"function","stateMutability":"view",
	 "inputs":[{"name":"countryCode","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]}
]`

// CountryTradingABIJSON covers margin and position management.
const CountryTradingABIJSON = `[
	{"name":"deposit","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"openLongPosition","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"countryCode","type":"bytes32"},{"name":"collateral","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"openShortPosition","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"countryCode","type":"bytes32"},{"name":"collateral","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"closePosition","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"positionId","type":"uint256"}],"outputs":[]},
	{"name":"closePositionPartial","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"positionId","type":"uint256"},{"name":"ratioBps","type":"uint256"}],"outputs":[]},
	{"name":"increaseCollateral","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"positionId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"liquidatePosition","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"user","type":"address"},{"name":"positionId","type":"uint256"}],"outputs":[]},
	{"anonymous":false,"name":"PositionOpened","type":"event",
	 "inputs":[{"indexed":true,"name":"trader","type":"address"},{"indexed":true,"name":"positionId","type":"uint256"},
	           {"indexed":false,"name":"countryCode","type":"bytes32"},{"indexed":false,"name":"isLong","type":"bool"},
	           {"indexed":false,"name":"collateral","type":"uint256"}]}
]`

// LiquidityPoolABIJSON covers pool metrics and LP deposits.
const LiquidityPoolABIJSON = `[
	{"name":"getPoolMetrics","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"poolBalance","type":"uint256"},{"name":"totalLongOI","type":"uint256"},{"name":"totalShortOI","type":"uint256"}]},
	{"name":"paused","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"deposit","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var (
	erc20ABI           = mustParseABI(ERC20ABIJSON)
	countryRegistryABI = mustParseABI(CountryRegistryABIJSON)
	countryTradingABI  = mustParseABI(CountryTradingABIJSON)
	liquidityPoolABI   = mustParseABI(LiquidityPoolABIJSON)
)

// ParseABI parses a JSON ABI definition.
func ParseABI(abiJSON string) (abi.ABI, error) {
	return abi.JSON(strings.NewReader(abiJSON))
}

func mustParseABI(abiJSON string) abi.ABI {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		panic("contracts: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
