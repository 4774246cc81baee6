package params

import "github.com/ethereum/go-ethereum/common"

const hardened = 0x80000000

var coins = map[Coin]*CoinParams{
	CoinETH: {
		ChainID:   1,
		Unit:      "ETH",
		Name:      "Ethereum",
		Bip44Coin: 60 + hardened,
	},
	CoinRopstenETH: {
		ChainID:   3,
		Unit:      "TETH",
		Name:      "Ropsten",
		Bip44Coin: 1 + hardened,
	},
	CoinRinkebyETH: {
		ChainID:   4,
		Unit:      "TETH",
		Name:      "Rinkeby",
		Bip44Coin: 1 + hardened,
	},
}

type tokenKey struct {
	coin     Coin
	contract common.Address
}

// tokens lists the ERC20 contracts the device can render natively. A contract
// missing from this table is still signable, but amounts are shown as unknown.
var tokens = map[tokenKey]*TokenParams{
	{CoinETH, common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7")}: {Unit: "USDT", Decimals: 6},
	{CoinETH, common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")}: {Unit: "USDC", Decimals: 6},
	{CoinETH, common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f")}: {Unit: "DAI", Decimals: 18},
	{CoinETH, common.HexToAddress("0x514910771af9ca656af840dff83e8264ecf986ca")}: {Unit: "LINK", Decimals: 18},
	{CoinETH, common.HexToAddress("0x2260fac5e5542a773aa44fbcfedf7c193bc2c599")}: {Unit: "WBTC", Decimals: 8},
}

type resolver struct{}

// NewResolver creates a Resolver backed by the built-in parameter tables
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewResolver() Resolver {
	return &resolver{}
}

// Coin resolves the parameters of a network
func (r *resolver) Coin(coin Coin) (*CoinParams, bool) {
	p, ok := coins[coin]
	return p, ok
}

// Token resolves the parameters of an ERC20 contract on a network
func (r *resolver) Token(coin Coin, contract common.Address) (*TokenParams, bool) {
	t, ok := tokens[tokenKey{coin, contract}]
	return t, ok
}
