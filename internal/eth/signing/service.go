package signing

import (
	"context"

	"github.com/pkg/errors"

	"github/hwsign/device/internal/antiklepto"
	"github/hwsign/device/internal/eth/keypath"
	"github/hwsign/device/internal/eth/params"
	"github/hwsign/device/internal/keystore"
	"github/hwsign/device/internal/util"
	"github/hwsign/device/internal/workflow"
)

type service struct {
	resolver  params.Resolver
	confirmer workflow.Confirmer
	keystore  keystore.Keystore
	host      antiklepto.HostChannel
}

// NewService creates a new signing Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(resolver params.Resolver, confirmer workflow.Confirmer, ks keystore.Keystore, host antiklepto.HostChannel) (Service, error) {
	return &service{
		resolver:  resolver,
		confirmer: confirmer,
		keystore:  ks,
		host:      host,
	}, nil
}

// SignTransaction validates the request, walks the user through the
// confirmation sequence and returns the recoverable signature. Every failure
// short-circuits; nothing is retried here.
func (s *service) SignTransaction(ctx context.Context, req *Request) (*Response, error) {
	log := util.LogFromContext(ctx).With().Str("component", "eth_signing").Logger()

	coin, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("coin", coin.Name).
		Str("keypath", keypath.String(req.Keypath)).
		Msg("Processing sign request")

	if err := s.warnUnusualKeypath(ctx, req, coin); err != nil {
		return nil, err
	}

	if transfer := parseERC20(req); transfer != nil {
		err = s.verifyERC20(ctx, req, coin, transfer)
	} else {
		err = s.verifyStandard(ctx, req, coin)
	}
	if err != nil {
		return nil, err
	}

	hash, err := sighash(req, coin.ChainID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}

	// The host nonce stays zero on the legacy path without anti-klepto.
	var hostNonce [antiklepto.NonceSize]byte
	if req.HostNonceCommitment != nil {
		var commitment [antiklepto.CommitmentSize]byte
		copy(commitment[:], req.HostNonceCommitment)

		signerCommitment, err := s.keystore.CommitNonce(req.Keypath, hash, commitment)
		if err != nil {
			log.Warn().Err(err).Msg("Nonce commitment failed")
			return nil, errors.WithStack(ErrSigning)
		}

		nonce, err := s.host.AwaitHostNonce(ctx, signerCommitment)
		if err != nil {
			// The keystore still holds the committed nonce; discard it so
			// the failed exchange cannot affect a later request.
			s.keystore.AbortNonce()
			log.Warn().Err(err).Msg("Host nonce exchange failed")
			return nil, errors.WithStack(ErrProtocolFault)
		}
		if len(nonce) != antiklepto.NonceSize {
			s.keystore.AbortNonce()
			return nil, errors.Wrapf(ErrProtocolFault, "host nonce must be %d bytes", antiklepto.NonceSize)
		}
		copy(hostNonce[:], nonce)
	}

	sig, err := s.keystore.Sign(req.Keypath, hash, hostNonce)
	if err != nil {
		if errors.Is(err, keystore.ErrNonceCommitment) {
			log.Warn().Msg("Host nonce does not open commitment")
			return nil, errors.WithStack(ErrProtocolFault)
		}
		log.Warn().Err(err).Msg("Signing failed")
		return nil, errors.WithStack(ErrSigning)
	}

	log.Info().Str("coin", coin.Name).Msg("Transaction signed")

	// Response payload is the raw signature followed by the recovery byte.
	signature := make([]byte, 0, len(sig.Raw)+1)
	signature = append(signature, sig.Raw[:]...)
	signature = append(signature, sig.RecID)
	return &Response{Signature: signature}, nil
}
