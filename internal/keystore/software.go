package keystore

import (
	"crypto/sha512"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/pbkdf2"

	"github/hwsign/device/internal/antiklepto"
)

// softKeystore is a deterministic software implementation of Keystore used by
// tests and the simulator. It derives keys with BIP32 and signs with a
// synthetic nonce so the anti-klepto exchange is honored end to end.
type softKeystore struct {
	master *bip32.Key

	mu sync.Mutex
	// pending holds the host commitment between CommitNonce and Sign;
	// consumed exactly once per signing operation and discarded on
	// AbortNonce so the state never leaks into the next request.
	pending *[32]byte
}

// NewSoftware creates a software keystore from a BIP39 seed
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewSoftware(seed []byte) (Keystore, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}
	return &softKeystore{master: master}, nil
}

// NewSoftwareFromMnemonic creates a software keystore from a BIP39 mnemonic
// and optional passphrase
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewSoftwareFromMnemonic(mnemonic string, passphrase string) (Keystore, error) {
	// BIP39: seed = PBKDF2(mnemonic, "mnemonic" + passphrase, 2048, 64, SHA512)
	const (
		pbkdf2Iterations = 2048
		pbkdf2KeyLength  = 64
	)
	seed := pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+passphrase), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	defer zero(seed)

	return NewSoftware(seed)
}

// CommitNonce starts the anti-klepto exchange and returns the signer commitment
func (s *softKeystore) CommitNonce(keypath []uint32, sighash [SighashSize]byte, hostCommitment [32]byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := s.derive(keypath)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	k0 := baseNonce(priv, sighash, hostCommitment)
	defer k0.Zero()

	commitment := noncePoint(k0)
	s.pending = &hostCommitment
	return commitment, nil
}

// AbortNonce discards a pending nonce commitment
func (s *softKeystore) AbortNonce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Sign produces a recoverable signature over sighash
func (s *softKeystore) Sign(keypath []uint32, sighash [SighashSize]byte, hostNonce [32]byte) (*Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var extra [32]byte
	if s.pending != nil {
		commitment := *s.pending
		s.pending = nil
		if !antiklepto.VerifyOpening(hostNonce[:], commitment[:]) {
			return nil, errors.WithStack(ErrNonceCommitment)
		}
		extra = commitment
	}

	priv, err := s.derive(keypath)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	// Base nonce and its public point, matching what CommitNonce announced.
	k0 := baseNonce(priv, sighash, extra)
	defer k0.Zero()
	signerCommitment := noncePoint(k0)

	// Final nonce binds both contributions.
	k := new(secp256k1.ModNScalar).Set(k0)
	defer k.Zero()
	k.Add(antiklepto.NonceTweak(signerCommitment, hostNonce[:]))

	return signWithNonce(priv, sighash, k)
}

func (s *softKeystore) derive(keypath []uint32) (*secp256k1.PrivateKey, error) {
	key := s.master
	var err error
	for _, index := range keypath {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	priv := secp256k1.PrivKeyFromBytes(key.Key)
	if priv.Key.IsZero() {
		return nil, errors.New("derived key is not usable")
	}
	return priv, nil
}

// baseNonce derives the deterministic base nonce k0 from the key, the sighash
// and the host commitment (RFC 6979 with extra data).
func baseNonce(priv *secp256k1.PrivateKey, sighash [SighashSize]byte, extra [32]byte) *secp256k1.ModNScalar {
	keyBytes := priv.Serialize()
	defer zero(keyBytes)
	return secp256k1.NonceRFC6979(keyBytes, sighash[:], extra[:], nil, 0)
}

// noncePoint serializes k*G as a compressed point
func noncePoint(k *secp256k1.ModNScalar) []byte {
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()
	return secp256k1.NewPublicKey(&point.X, &point.Y).SerializeCompressed()
}

// signWithNonce runs plain ECDSA with the supplied nonce and normalizes the
// signature to the low-s form expected by Ethereum.
func signWithNonce(priv *secp256k1.PrivateKey, sighash [SighashSize]byte, k *secp256k1.ModNScalar) (*Signature, error) {
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &point)
	if point.Z.IsZero() {
		return nil, errors.New("nonce is not usable")
	}
	point.ToAffine()
	point.X.Normalize()
	point.Y.Normalize()

	var r secp256k1.ModNScalar
	overflow := r.SetBytes(point.X.Bytes())
	if r.IsZero() {
		return nil, errors.New("nonce is not usable")
	}

	recID := byte(0)
	if overflow > 0 {
		recID |= 2
	}
	if point.Y.IsOdd() {
		recID |= 1
	}

	var z secp256k1.ModNScalar
	z.SetBytes(&sighash)

	kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	sv := new(secp256k1.ModNScalar).Mul2(&r, &priv.Key).Add(&z).Mul(kInv)
	if sv.IsZero() {
		return nil, errors.New("nonce is not usable")
	}
	if sv.IsOverHalfOrder() {
		sv.Negate()
		recID ^= 1
	}

	sig := &Signature{RecID: recID}
	rBytes := r.Bytes()
	sBytes := sv.Bytes()
	copy(sig.Raw[:32], rBytes[:])
	copy(sig.Raw[32:], sBytes[:])
	return sig, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
