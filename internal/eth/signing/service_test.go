package signing

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/hwsign/device/internal/eth/keypath"
	"github/hwsign/device/internal/eth/params"
	"github/hwsign/device/internal/keystore"
	"github/hwsign/device/internal/workflow"
)

type confirmCall struct {
	kind       string // "confirm", "transaction", "totalfee"
	a          string // title, recipient or total
	b          string // body, amount or fee
	scrollable bool
}

// fakeConfirmer records the confirmation sequence and answers with the
// scripted function (accepting everything when nil).
type fakeConfirmer struct {
	calls  []confirmCall
	answer func(call confirmCall) bool
}

func (f *fakeConfirmer) record(call confirmCall) (bool, error) {
	f.calls = append(f.calls, call)
	if f.answer == nil {
		return true, nil
	}
	return f.answer(call), nil
}

func (f *fakeConfirmer) Confirm(_ context.Context, p workflow.ConfirmParams) (bool, error) {
	return f.record(confirmCall{kind: "confirm", a: p.Title, b: p.Body, scrollable: p.Scrollable})
}

func (f *fakeConfirmer) ConfirmTransaction(_ context.Context, recipient string, value string) (bool, error) {
	return f.record(confirmCall{kind: "transaction", a: recipient, b: value})
}

func (f *fakeConfirmer) ConfirmTotalFee(_ context.Context, total string, fee string) (bool, error) {
	return f.record(confirmCall{kind: "totalfee", a: total, b: fee})
}

type fakeKeystore struct {
	signature  keystore.Signature
	commitment []byte
	commitErr  error
	signErr    error

	commitCalls        int
	signCalls          int
	abortCalls         int
	lastKeypath        []uint32
	lastSighash        [32]byte
	lastHostCommitment [32]byte
	lastHostNonce      [32]byte
}

func (f *fakeKeystore) CommitNonce(path []uint32, sighash [32]byte, hostCommitment [32]byte) ([]byte, error) {
	f.commitCalls++
	f.lastKeypath = path
	f.lastSighash = sighash
	f.lastHostCommitment = hostCommitment
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return f.commitment, nil
}

func (f *fakeKeystore) Sign(path []uint32, sighash [32]byte, hostNonce [32]byte) (*keystore.Signature, error) {
	f.signCalls++
	f.lastKeypath = path
	f.lastSighash = sighash
	f.lastHostNonce = hostNonce
	if f.signErr != nil {
		return nil, f.signErr
	}
	sig := f.signature
	return &sig, nil
}

func (f *fakeKeystore) AbortNonce() {
	f.abortCalls++
}

type fakeHost struct {
	nonce         []byte
	err           error
	gotCommitment []byte
}

func (f *fakeHost) AwaitHostNonce(_ context.Context, signerCommitment []byte) ([]byte, error) {
	f.gotCommitment = signerCommitment
	if f.err != nil {
		return nil, f.err
	}
	return f.nonce, nil
}

type testEnv struct {
	service   Service
	confirmer *fakeConfirmer
	keystore  *fakeKeystore
	host      *fakeHost
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		confirmer: &fakeConfirmer{},
		keystore:  &fakeKeystore{},
		host:      &fakeHost{nonce: make([]byte, 32)},
	}
	for i := range env.keystore.signature.Raw {
		env.keystore.signature.Raw[i] = byte(i)
	}
	env.keystore.signature.RecID = 1

	var err error
	env.service, err = NewService(params.NewResolver(), env.confirmer, env.keystore, env.host)
	require.NoError(t, err)
	return env
}

func TestSignStandardTransaction(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.service.SignTransaction(t.Context(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []confirmCall{
		{kind: "transaction", a: "0x04F264Cf34440313B4A0192A352814FBe927b885", b: "0.530564 ETH"},
		{kind: "totalfee", a: "0.53069 ETH", b: "0.000126 ETH"},
	}, env.confirmer.calls)

	want := append(env.keystore.signature.Raw[:], env.keystore.signature.RecID)
	assert.Equal(t, want, resp.Signature)

	// Legacy path: no anti-klepto round trip, zero host nonce.
	assert.Equal(t, 0, env.keystore.commitCalls)
	assert.Nil(t, env.host.gotCommitment)
	assert.Equal(t, [32]byte{}, env.keystore.lastHostNonce)
	assert.Equal(t, validRequest().Keypath, env.keystore.lastKeypath)

	expectedHash, err := sighash(validRequest(), 1)
	require.NoError(t, err)
	assert.Equal(t, expectedHash, env.keystore.lastSighash)
}

func TestSignStandardTransactionWithData(t *testing.T) {
	env := newTestEnv(t)

	req := validRequest()
	req.Data = []byte("foo bar")

	_, err := env.service.SignTransaction(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, []confirmCall{
		{kind: "confirm", a: "Unknown contract", b: "You will be shown the raw transaction data."},
		{kind: "confirm", a: "Unknown contract", b: "Only proceed if you understand exactly what the data means."},
		{kind: "confirm", a: "Transaction data", b: "666f6f20626172", scrollable: true},
		{kind: "transaction", a: "0x04F264Cf34440313B4A0192A352814FBe927b885", b: "0.530564 ETH"},
		{kind: "totalfee", a: "0.53069 ETH", b: "0.000126 ETH"},
	}, env.confirmer.calls)
}

func TestSignERC20KnownToken(t *testing.T) {
	env := newTestEnv(t)

	req := &Request{
		Coin:      params.CoinETH,
		Keypath:   validRequest().Keypath,
		Nonce:     []byte{0x23, 0x67},
		GasPrice:  []byte{0x02, 0x7a, 0xca, 0x1a, 0x80},
		GasLimit:  []byte{0x01, 0xd0, 0x48},
		Recipient: hexutil.MustDecode("0xdac17f958d2ee523a2206206994597c13d831ec7"),
		Data: hexutil.MustDecode("0xa9059cbb" +
			"000000000000000000000000e6ce0a092a99700cd4ccccbb1fedc39cf53e6330" +
			"000000000000000000000000000000000000000000000000000000000365c040"),
	}

	_, err := env.service.SignTransaction(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, []confirmCall{
		{kind: "transaction", a: "0xE6CE0a092A99700CD4ccCcBb1fEDc39Cf53E6330", b: "57 USDT"},
		{kind: "totalfee", a: "57 USDT", b: "0.0012658164 ETH"},
	}, env.confirmer.calls)
}

func TestSignERC20UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	req := &Request{
		Coin:      params.CoinETH,
		Keypath:   validRequest().Keypath,
		Nonce:     []byte{0xb9},
		GasPrice:  []byte{0x3b, 0x9a, 0xca, 0x00},
		GasLimit:  []byte{0x01, 0x09, 0x85},
		Recipient: hexutil.MustDecode("0x9c23d67aea7b95d80942e3836bcdf7e708a747c1"),
		Data: hexutil.MustDecode("0xa9059cbb" +
			"000000000000000000000000857b3d969eacb775a9f79cabc62ec4bb1d1cd60e" +
			"000000000000000000000000000000000000000000000098a63cbeb859d027b0"),
	}

	_, err := env.service.SignTransaction(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, []confirmCall{
		{kind: "transaction", a: "0x857B3D969eAcB775a9f79cabc62Ec4bB1D1cd60e", b: "Unknown token"},
		{kind: "totalfee", a: "Unknown amount", b: "0.000067973 ETH"},
	}, env.confirmer.calls)
}

func TestSignWarnsUnusualKeypath(t *testing.T) {
	env := newTestEnv(t)

	// Ropsten request on the mainnet keypath.
	req := validRequest()
	req.Coin = params.CoinRopstenETH

	_, err := env.service.SignTransaction(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, []confirmCall{
		{kind: "confirm", a: "Ropsten", b: "Unusual keypath warning: m/44'/60'/0'/0/0. Proceed only if you know what you are doing."},
		{kind: "transaction", a: "0x04F264Cf34440313B4A0192A352814FBe927b885", b: "0.530564 TETH"},
		{kind: "totalfee", a: "0.53069 TETH", b: "0.000126 TETH"},
	}, env.confirmer.calls)
}

func TestSignUserAbort(t *testing.T) {
	tests := []struct {
		name   string
		reject string
	}{
		{"reject recipient and amount", "transaction"},
		{"reject total and fee", "totalfee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.confirmer.answer = func(call confirmCall) bool {
				return call.kind != tt.reject
			}

			_, err := env.service.SignTransaction(t.Context(), validRequest())
			assert.True(t, errors.Is(err, ErrUserAbort), "expected ErrUserAbort, got %v", err)
			assert.Equal(t, 0, env.keystore.signCalls, "no signature after rejection")
		})
	}

	t.Run("reject unusual keypath warning", func(t *testing.T) {
		env := newTestEnv(t)
		env.confirmer.answer = func(call confirmCall) bool {
			return call.kind != "confirm"
		}

		req := validRequest()
		req.Coin = params.CoinRopstenETH

		_, err := env.service.SignTransaction(t.Context(), req)
		assert.True(t, errors.Is(err, ErrUserAbort))
		assert.Len(t, env.confirmer.calls, 1, "nothing shown after the rejected warning")
		assert.Equal(t, 0, env.keystore.signCalls)
	})
}

func TestSignInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *Request)
	}{
		{"unknown coin", func(req *Request) { req.Coin = 100 }},
		{"invalid keypath", func(req *Request) { req.Keypath[1] = 0 + keypath.Hardened }},
		{"data too long", func(req *Request) { req.Data = make([]byte, 1025) }},
		{"recipient too long", func(req *Request) { req.Recipient = make([]byte, 21) }},
		{"recipient all zero", func(req *Request) { req.Recipient = make([]byte, 20) }},
		{"nothing to transfer", func(req *Request) { req.Value = nil }},
		{"host commitment wrong length", func(req *Request) { req.HostNonceCommitment = make([]byte, 31) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validRequest()
			tt.mutate(req)

			_, err := env.service.SignTransaction(t.Context(), req)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
			assert.Equal(t, 0, env.keystore.commitCalls)
			assert.Equal(t, 0, env.keystore.signCalls)
		})
	}
}

func TestSignKeystoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.keystore.signErr = keystore.ErrLocked

	_, err := env.service.SignTransaction(t.Context(), validRequest())
	assert.True(t, errors.Is(err, ErrSigning), "expected ErrSigning, got %v", err)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestSignAntiklepto(t *testing.T) {
	hostCommitment := make([]byte, 32)
	for i := range hostCommitment {
		hostCommitment[i] = byte(0xc0 + i)
	}

	t.Run("full exchange", func(t *testing.T) {
		env := newTestEnv(t)
		env.keystore.commitment = make([]byte, 33)
		env.keystore.commitment[0] = 0x02
		env.host.nonce = make([]byte, 32)
		env.host.nonce[31] = 0x2a

		req := validRequest()
		req.HostNonceCommitment = hostCommitment

		resp, err := env.service.SignTransaction(t.Context(), req)
		require.NoError(t, err)
		require.Len(t, resp.Signature, 65)

		assert.Equal(t, 1, env.keystore.commitCalls)
		assert.Equal(t, hostCommitment, env.keystore.lastHostCommitment[:])
		assert.Equal(t, env.keystore.commitment, env.host.gotCommitment)
		assert.Equal(t, env.host.nonce, env.keystore.lastHostNonce[:])
	})

	t.Run("commitment failure is opaque", func(t *testing.T) {
		env := newTestEnv(t)
		env.keystore.commitErr = keystore.ErrLocked

		req := validRequest()
		req.HostNonceCommitment = hostCommitment

		_, err := env.service.SignTransaction(t.Context(), req)
		assert.True(t, errors.Is(err, ErrSigning))
		assert.Nil(t, env.host.gotCommitment, "no round trip after commit failure")
	})

	t.Run("host channel failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.host.err = errors.New("host went away")

		req := validRequest()
		req.HostNonceCommitment = hostCommitment

		_, err := env.service.SignTransaction(t.Context(), req)
		assert.True(t, errors.Is(err, ErrProtocolFault))
		assert.Equal(t, 0, env.keystore.signCalls)
		assert.Equal(t, 1, env.keystore.abortCalls, "committed nonce must be discarded")
	})

	t.Run("malformed host nonce", func(t *testing.T) {
		env := newTestEnv(t)
		env.host.nonce = make([]byte, 31)

		req := validRequest()
		req.HostNonceCommitment = hostCommitment

		_, err := env.service.SignTransaction(t.Context(), req)
		assert.True(t, errors.Is(err, ErrProtocolFault))
		assert.Equal(t, 0, env.keystore.signCalls)
		assert.Equal(t, 1, env.keystore.abortCalls, "committed nonce must be discarded")
	})

	t.Run("commitment reveal mismatch", func(t *testing.T) {
		env := newTestEnv(t)
		env.keystore.signErr = keystore.ErrNonceCommitment

		req := validRequest()
		req.HostNonceCommitment = hostCommitment

		_, err := env.service.SignTransaction(t.Context(), req)
		assert.True(t, errors.Is(err, ErrProtocolFault))
	})
}
