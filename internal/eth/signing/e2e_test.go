package signing

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"

	"github/hwsign/device/internal/antiklepto"
	"github/hwsign/device/internal/eth/params"
	"github/hwsign/device/internal/keystore"
)

// End-to-end through the real software keystore: the signature must be
// deterministic for fixed inputs and must recover to the key derived for the
// request's keypath.
func TestSignEndToEnd(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}

	ks, err := keystore.NewSoftware(seed)
	require.NoError(t, err)

	var hostNonce [32]byte
	hostNonce[0] = 0x17
	host := antiklepto.NewHostFromNonce(hostNonce)

	service, err := NewService(params.NewResolver(), &fakeConfirmer{}, ks, host)
	require.NoError(t, err)

	req := validRequest()

	first, err := service.SignTransaction(t.Context(), req)
	require.NoError(t, err)
	require.Len(t, first.Signature, 65)

	second, err := service.SignTransaction(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Signature, second.Signature, "legacy signing is deterministic")

	// The recovered public key must match the derived one.
	hash, err := sighash(req, 1)
	require.NoError(t, err)

	recovered, err := crypto.SigToPub(hash[:], first.Signature)
	require.NoError(t, err)
	assert.Equal(t, deriveAddress(t, seed, req.Keypath), crypto.PubkeyToAddress(*recovered).Hex())

	t.Run("antiklepto", func(t *testing.T) {
		withCommitment := validRequest()
		withCommitment.HostNonceCommitment = host.Commitment()

		resp, err := service.SignTransaction(t.Context(), withCommitment)
		require.NoError(t, err)
		require.Len(t, resp.Signature, 65)

		assert.True(t, host.VerifySignature(resp.Signature), "signature must open the signer nonce commitment")
		assert.NotEqual(t, first.Signature, resp.Signature, "host contribution changes the nonce")

		recovered, err := crypto.SigToPub(hash[:], resp.Signature)
		require.NoError(t, err)
		assert.Equal(t, deriveAddress(t, seed, req.Keypath), crypto.PubkeyToAddress(*recovered).Hex())
	})
}

// A failed anti-klepto exchange must leave no trace in the keystore: the
// next request, legacy or not, starts from a clean slate.
func TestSignAfterFailedExchange(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	ks, err := keystore.NewSoftware(seed)
	require.NoError(t, err)

	failingHost := &fakeHost{err: errors.New("host went away")}
	service, err := NewService(params.NewResolver(), &fakeConfirmer{}, ks, failingHost)
	require.NoError(t, err)

	var hostNonce [32]byte
	hostNonce[0] = 0x17

	withCommitment := validRequest()
	withCommitment.HostNonceCommitment = antiklepto.NewHostFromNonce(hostNonce).Commitment()

	_, err = service.SignTransaction(t.Context(), withCommitment)
	require.True(t, errors.Is(err, ErrProtocolFault), "expected ErrProtocolFault, got %v", err)

	// The committed nonce from the failed exchange is gone; a plain legacy
	// request signs normally.
	resp, err := service.SignTransaction(t.Context(), validRequest())
	require.NoError(t, err)
	require.Len(t, resp.Signature, 65)

	hash, err := sighash(validRequest(), 1)
	require.NoError(t, err)
	recovered, err := crypto.SigToPub(hash[:], resp.Signature)
	require.NoError(t, err)
	assert.Equal(t, deriveAddress(t, seed, validRequest().Keypath), crypto.PubkeyToAddress(*recovered).Hex())
}

func deriveAddress(t *testing.T, seed []byte, path []uint32) string {
	t.Helper()

	key, err := bip32.NewMasterKey(seed)
	require.NoError(t, err)
	for _, index := range path {
		key, err = key.NewChildKey(index)
		require.NoError(t, err)
	}

	pub, err := crypto.DecompressPubkey(key.PublicKey().Key)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub).Hex()
}
