package signing

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// erc20TransferSelector is the 4 byte method id of transfer(address,uint256)
var erc20TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// erc20Transfer is the result of recognizing a token transfer call in the
// payload: the token recipient and the transferred token amount.
type erc20Transfer struct {
	recipient common.Address
	value     *big.Int
}

// parseERC20 recognizes the exact ABI encoding of an ERC20 transfer:
// selector, a 20 byte recipient zero padded to 32 bytes, and a nonzero
// 32 byte big endian amount, with no native value transacted. Anything else
// returns nil and is handled as a standard transaction with opaque data; this
// is a deliberate best-effort heuristic, not an ABI decoder.
func parseERC20(req *Request) *erc20Transfer {
	if len(req.Value) != 0 || len(req.Data) != 68 {
		return nil
	}

	method, recipient, value := req.Data[:4], req.Data[4:36], req.Data[36:68]
	if !bytes.Equal(method, erc20TransferSelector) {
		return nil
	}
	// Recipient must be zero padded.
	if !allZero(recipient[:12]) {
		return nil
	}
	// Transacted value can't be zero.
	if allZero(value) {
		return nil
	}

	return &erc20Transfer{
		recipient: common.BytesToAddress(recipient[12:]),
		value:     new(big.Int).SetBytes(value),
	}
}
