package signing

import (
	"github.com/pkg/errors"

	"github/hwsign/device/internal/antiklepto"
	"github/hwsign/device/internal/eth/keypath"
	"github/hwsign/device/internal/eth/params"
)

// Wire-format size ceilings.
const (
	maxNonceLen    = 16
	maxGasPriceLen = 16
	maxGasLimitLen = 16
	maxValueLen    = 32
	maxDataLen     = 1024

	recipientLen = 20
)

// validate runs every structural check on the request before anything is
// shown to the user or any collaborator is called. It is a pure function of
// the request and the parameter tables.
func (s *service) validate(req *Request) (*params.CoinParams, error) {
	coin, ok := s.resolver.Coin(req.Coin)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown coin %d", req.Coin)
	}

	if !keypath.IsValidAddressPath(req.Keypath) {
		return nil, errors.Wrapf(ErrInvalidInput, "invalid keypath %s", keypath.String(req.Keypath))
	}

	if len(req.Nonce) > maxNonceLen ||
		len(req.GasPrice) > maxGasPriceLen ||
		len(req.GasLimit) > maxGasLimitLen ||
		len(req.Value) > maxValueLen ||
		len(req.Data) > maxDataLen {
		return nil, errors.Wrap(ErrInvalidInput, "field size limit exceeded")
	}

	// A leading zero byte means the big endian encoding is not canonical.
	for _, field := range [][]byte{req.Nonce, req.GasPrice, req.GasLimit, req.Value} {
		if len(field) > 0 && field[0] == 0 {
			return nil, errors.Wrap(ErrInvalidInput, "non-canonical big endian encoding")
		}
	}

	if len(req.Recipient) != recipientLen {
		return nil, errors.Wrapf(ErrInvalidInput, "recipient must be %d bytes", recipientLen)
	}
	if allZero(req.Recipient) {
		// The zero address is reserved for contract creation, which is not
		// supported here.
		return nil, errors.Wrap(ErrInvalidInput, "recipient is the zero address")
	}

	if req.HostNonceCommitment != nil && len(req.HostNonceCommitment) != antiklepto.CommitmentSize {
		return nil, errors.Wrapf(ErrInvalidInput, "host nonce commitment must be %d bytes", antiklepto.CommitmentSize)
	}

	return coin, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
