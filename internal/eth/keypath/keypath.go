// Package keypath validates and renders BIP32 derivation paths for the
// Ethereum app.
package keypath

import (
	"fmt"
	"strings"

	"github/hwsign/device/internal/eth/params"
)

// Hardened is the BIP32 hardened derivation flag.
const Hardened uint32 = 0x80000000

const (
	purpose     = 44 + Hardened
	coinETH     = 60 + Hardened
	coinTestnet = 1 + Hardened

	// maxAddressIndex bounds the address component; higher indices are
	// almost certainly host mistakes.
	maxAddressIndex = 99
)

// IsValidAddressPath reports whether path has the m/44'/60'/0'/0/i shape used
// for Ethereum account keys. The testnet coin 1' is also accepted; whether it
// matches the requested network is a separate concern, see IsUnusual.
func IsValidAddressPath(path []uint32) bool {
	if len(path) != 5 {
		return false
	}
	if path[0] != purpose {
		return false
	}
	if path[1] != coinETH && path[1] != coinTestnet {
		return false
	}
	if path[2] != 0+Hardened {
		return false
	}
	if path[3] != 0 {
		return false
	}
	return path[4] <= maxAddressIndex
}

// IsUnusual reports whether a valid path uses a coin component that does not
// match the network, e.g. the mainnet 60' on a testnet coin. Such paths are
// signable but warrant a user warning.
func IsUnusual(path []uint32, coin *params.CoinParams) bool {
	return len(path) >= 2 && path[1] != coin.Bip44Coin
}

// String renders path in the usual notation, e.g. "m/44'/60'/0'/0/0".
func String(path []uint32) string {
	var b strings.Builder
	b.WriteByte('m')
	for _, e := range path {
		if e >= Hardened {
			fmt.Fprintf(&b, "/%d'", e-Hardened)
		} else {
			fmt.Fprintf(&b, "/%d", e)
		}
	}
	return b.String()
}
