package signing

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// sighashFields is the EIP-155 signing payload of a legacy transaction. The
// trailing zero R and S encode as empty strings, as EIP-155 demands.
type sighashFields struct {
	Nonce     []byte
	GasPrice  []byte
	GasLimit  []byte
	Recipient []byte
	Value     []byte
	Data      []byte
	ChainID   uint64
	R         uint
	S         uint
}

// sighash computes the hash the signature commits to:
// keccak256(rlp(nonce, gasPrice, gasLimit, recipient, value, data, chainID, 0, 0)).
// The request fields are already canonical big endian, which is what RLP
// expects for integers.
func sighash(req *Request, chainID uint64) ([32]byte, error) {
	encoded, err := rlp.EncodeToBytes(&sighashFields{
		Nonce:     req.Nonce,
		GasPrice:  req.GasPrice,
		GasLimit:  req.GasLimit,
		Recipient: req.Recipient,
		Value:     req.Value,
		Data:      req.Data,
		ChainID:   chainID,
	})
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "failed to encode transaction")
	}

	var hash [32]byte
	copy(hash[:], crypto.Keccak256(encoded))
	return hash, nil
}
