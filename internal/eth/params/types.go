package params

import "github.com/ethereum/go-ethereum/common"

// Coin identifies a supported network on the wire. The numeric values are
// part of the request encoding and must not be reordered.
type Coin int32

const (
	// CoinETH is Ethereum mainnet
	CoinETH Coin = 0
	// CoinRopstenETH is the Ropsten testnet
	CoinRopstenETH Coin = 1
	// CoinRinkebyETH is the Rinkeby testnet
	CoinRinkebyETH Coin = 2
)

// CoinParams holds the static per-network parameters
type CoinParams struct {
	// ChainID is the EIP-155 chain id used in the signing hash
	ChainID uint64
	// Unit is the native unit label shown to the user (e.g. "ETH")
	Unit string
	// Name is the human readable network name
	Name string
	// Bip44Coin is the hardened BIP44 coin component expected for this network
	Bip44Coin uint32
}

// TokenParams holds the display parameters of a known ERC20 contract.
// Decimals is defined by the contract and needed to render token values.
type TokenParams struct {
	Unit     string
	Decimals uint
}

// Resolver maps coin identifiers and contract addresses to their static
// parameters. The second return value is false when the coin or token is
// unknown; an unknown token is a valid state, not an error.
type Resolver interface {
	// Coin resolves the parameters of a network
	Coin(coin Coin) (*CoinParams, bool)

	// Token resolves the parameters of an ERC20 contract on a network
	Token(coin Coin, contract common.Address) (*TokenParams, bool)
}
