// Package antiklepto implements the commit-reveal nonce exchange that keeps
// a malicious host from biasing the ECDSA signing nonce.
//
// The host first commits to its nonce contribution with a SHA-256 hash. The
// signer answers with its own nonce commitment R0 and only then receives the
// host contribution in the clear. The final signing nonce is
// k0 + H(ser(R0) || host_nonce), so neither side can choose it alone.
package antiklepto

import (
	"context"
	"crypto/rand"
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

const (
	// CommitmentSize is the byte width of the host nonce commitment
	CommitmentSize = 32
	// NonceSize is the byte width of the host nonce contribution
	NonceSize = 32
	// SignerCommitmentSize is the byte width of the signer commitment, a
	// compressed secp256k1 point
	SignerCommitmentSize = 33
)

// HostChannel carries the signer commitment to the host and suspends until
// the host reveals its nonce contribution.
type HostChannel interface {
	// AwaitHostNonce sends signerCommitment out and blocks for the reveal
	AwaitHostNonce(ctx context.Context, signerCommitment []byte) ([]byte, error)
}

// Commit computes the commitment to a host nonce contribution
func Commit(hostNonce []byte) [CommitmentSize]byte {
	return sha256.Sum256(hostNonce)
}

// VerifyOpening reports whether hostNonce opens commitment
func VerifyOpening(hostNonce []byte, commitment []byte) bool {
	c := Commit(hostNonce)
	if len(commitment) != CommitmentSize {
		return false
	}
	for i, b := range c {
		if commitment[i] != b {
			return false
		}
	}
	return true
}

// NonceTweak derives the scalar added to the signer's base nonce, binding the
// final nonce to both contributions. Signer and host must compute it
// identically.
func NonceTweak(signerCommitment []byte, hostNonce []byte) *secp256k1.ModNScalar {
	h := sha256.New()
	h.Write(signerCommitment)
	h.Write(hostNonce)
	var digest [32]byte
	h.Sum(digest[:0])

	var t secp256k1.ModNScalar
	t.SetBytes(&digest)
	return &t
}

// Host is the host-side counterpart of the protocol. It doubles as a
// HostChannel so tests and the simulator can run the exchange in-process.
type Host struct {
	nonce            [NonceSize]byte
	signerCommitment []byte
}

// NewHost creates a host with a fresh random nonce contribution
func NewHost() (*Host, error) {
	var h Host
	if _, err := rand.Read(h.nonce[:]); err != nil {
		return nil, errors.Wrap(err, "failed to generate host nonce")
	}
	return &h, nil
}

// NewHostFromNonce creates a host with a fixed nonce contribution
func NewHostFromNonce(nonce [NonceSize]byte) *Host {
	return &Host{nonce: nonce}
}

// Commitment returns the commitment opening this host's nonce
func (h *Host) Commitment() []byte {
	c := Commit(h.nonce[:])
	return c[:]
}

// AwaitHostNonce records the signer commitment and reveals the host nonce
func (h *Host) AwaitHostNonce(_ context.Context, signerCommitment []byte) ([]byte, error) {
	if len(signerCommitment) != SignerCommitmentSize {
		return nil, errors.Errorf("unexpected signer commitment size %d", len(signerCommitment))
	}
	h.signerCommitment = append([]byte(nil), signerCommitment...)
	return h.nonce[:], nil
}

// VerifySignature checks that the final signature actually used both nonce
// contributions: its r component must equal the x coordinate of
// R0 + NonceTweak(R0, host_nonce)*G. This is what an honest host runs after
// signing to detect a cheating signer.
func (h *Host) VerifySignature(sig []byte) bool {
	if h.signerCommitment == nil {
		return false
	}
	return VerifySignerCommitment(h.signerCommitment, h.nonce[:], sig)
}

// VerifySignerCommitment reports whether sig's r component is consistent with
// the signer commitment and the revealed host nonce.
func VerifySignerCommitment(signerCommitment []byte, hostNonce []byte, sig []byte) bool {
	if len(sig) < 64 {
		return false
	}

	r0, err := secp256k1.ParsePubKey(signerCommitment)
	if err != nil {
		return false
	}

	// Expected R = R0 + tweak*G.
	var r0j, tweakG, result secp256k1.JacobianPoint
	r0.AsJacobian(&r0j)
	secp256k1.ScalarBaseMultNonConst(NonceTweak(signerCommitment, hostNonce), &tweakG)
	secp256k1.AddNonConst(&r0j, &tweakG, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return false
	}
	result.ToAffine()

	var expected secp256k1.ModNScalar
	expected.SetBytes(result.X.Bytes())
	expectedBytes := expected.Bytes()

	var r secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false
	}
	rBytes := r.Bytes()

	return expectedBytes == rBytes
}
