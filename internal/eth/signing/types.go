package signing

import (
	"context"

	"github/hwsign/device/internal/eth/params"
)

// Request is one decoded transaction signing request. All integer fields are
// canonical big endian without a leading zero byte; an empty Value means zero.
// The request is treated as immutable while it is processed.
type Request struct {
	// Coin selects the network parameters
	Coin params.Coin
	// Keypath is the BIP32 derivation path of the signing key
	Keypath []uint32
	// Nonce is the account nonce (max 16 bytes)
	Nonce []byte
	// GasPrice in wei (max 16 bytes)
	GasPrice []byte
	// GasLimit in gas units (max 16 bytes)
	GasLimit []byte
	// Recipient is the destination address (exactly 20 bytes, not all zero)
	Recipient []byte
	// Value in wei (max 32 bytes)
	Value []byte
	// Data is the opaque contract call payload (max 1024 bytes)
	Data []byte
	// HostNonceCommitment engages the anti-klepto protocol when present
	// (exactly 32 bytes); nil selects the legacy direct signing path
	HostNonceCommitment []byte
}

// Response carries the 64 byte signature followed by one recovery byte
type Response struct {
	Signature []byte
}

// Service verifies and signs Ethereum transactions
type Service interface {
	// SignTransaction validates the request, walks the user through the
	// confirmation sequence and returns the recoverable signature
	SignTransaction(ctx context.Context, req *Request) (*Response, error)
}
