package keystore

import "github.com/pkg/errors"

// SighashSize is the byte width of the hash handed to the signing primitives
const SighashSize = 32

// Signature is a raw secp256k1 signature with its recovery identifier
type Signature struct {
	// Raw is the 64 byte r || s encoding
	Raw [64]byte
	// RecID recovers the public key from the signature (0-3)
	RecID byte
}

var (
	// ErrLocked is returned when key material is not available
	ErrLocked = errors.New("keystore is locked")

	// ErrNonceCommitment is returned when the revealed host nonce does not
	// open the commitment received earlier. This is a protocol violation by
	// the host, not a malformed request.
	ErrNonceCommitment = errors.New("host nonce does not open commitment")
)

// Keystore holds key material and performs the signing primitives. Both
// operations derive the key for keypath internally; private keys never leave
// the keystore.
type Keystore interface {
	// CommitNonce starts the anti-klepto exchange: it binds the signer's
	// nonce to (keypath, sighash, hostCommitment) and returns the signer
	// commitment to be sent to the host.
	CommitNonce(keypath []uint32, sighash [SighashSize]byte, hostCommitment [32]byte) ([]byte, error)

	// Sign produces a recoverable signature over sighash. hostNonce is the
	// host's revealed nonce contribution; all zeroes when the anti-klepto
	// exchange was skipped.
	Sign(keypath []uint32, sighash [SighashSize]byte, hostNonce [32]byte) (*Signature, error)

	// AbortNonce discards a nonce commitment from CommitNonce that will not
	// be followed by a Sign, e.g. when the host exchange failed. Calling it
	// without a pending commitment is a no-op.
	AbortNonce()
}
