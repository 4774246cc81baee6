package signing

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github/hwsign/device/internal/eth/amount"
	"github/hwsign/device/internal/eth/keypath"
	"github/hwsign/device/internal/eth/params"
	"github/hwsign/device/internal/workflow"
)

// All verification below runs strictly in order. Each confirmation suspends
// until the user answers and a rejection aborts immediately; no signing
// material is touched before the whole sequence was accepted.

// warnUnusualKeypath asks the user to acknowledge a keypath whose coin
// component does not match the network, e.g. a mainnet path on a testnet.
func (s *service) warnUnusualKeypath(ctx context.Context, req *Request, coin *params.CoinParams) error {
	if !keypath.IsUnusual(req.Keypath, coin) {
		return nil
	}
	return s.confirm(ctx, workflow.ConfirmParams{
		Title: coin.Name,
		Body:  fmt.Sprintf("Unusual keypath warning: %s. Proceed only if you know what you are doing.", keypath.String(req.Keypath)),
	})
}

// verifyStandard confirms a plain value transfer. A non-empty data field is
// an unrecognized contract call and is shown raw, for experts that know the
// expected encoding of the invocation.
func (s *service) verifyStandard(ctx context.Context, req *Request, coin *params.CoinParams) error {
	if len(req.Data) == 0 && len(req.Value) == 0 {
		// Must transfer a non-zero value, unless there is data.
		return errors.Wrap(ErrInvalidInput, "nothing to transfer")
	}

	if len(req.Data) > 0 {
		if err := s.confirm(ctx, workflow.ConfirmParams{
			Title: "Unknown contract",
			Body:  "You will be shown the raw transaction data.",
		}); err != nil {
			return err
		}
		if err := s.confirm(ctx, workflow.ConfirmParams{
			Title: "Unknown contract",
			Body:  "Only proceed if you understand exactly what the data means.",
		}); err != nil {
			return err
		}
		if err := s.confirm(ctx, workflow.ConfirmParams{
			Title:      "Transaction data",
			Body:       hex.EncodeToString(req.Data),
			Scrollable: true,
		}); err != nil {
			return err
		}
	}

	value := amount.Amount{
		Unit:     coin.Unit,
		Decimals: amount.WeiDecimals,
		Value:    new(big.Int).SetBytes(req.Value),
	}
	if err := s.confirmTransaction(ctx, common.BytesToAddress(req.Recipient).Hex(), value.Format()); err != nil {
		return err
	}

	fee := parseFee(req, coin)
	total := amount.Amount{
		Unit:     coin.Unit,
		Decimals: amount.WeiDecimals,
		Value:    new(big.Int).Add(value.Value, fee.Value),
	}
	return s.confirmTotalFee(ctx, total.Format(), fee.Format())
}

// verifyERC20 confirms a recognized token transfer. When the contract is not
// in the token table the amount cannot be rendered (the decimals live in the
// contract), so placeholders are shown; the fee is always exact and native.
func (s *service) verifyERC20(ctx context.Context, req *Request, coin *params.CoinParams, transfer *erc20Transfer) error {
	formattedValue := "Unknown token"
	formattedTotal := "Unknown amount"
	if token, ok := s.resolver.Token(req.Coin, common.BytesToAddress(req.Recipient)); ok {
		v := amount.Amount{
			Unit:     token.Unit,
			Decimals: token.Decimals,
			Value:    transfer.value,
		}.Format()
		// The fee has a different unit, so the total is just the value again.
		formattedValue = v
		formattedTotal = v
	}

	if err := s.confirmTransaction(ctx, transfer.recipient.Hex(), formattedValue); err != nil {
		return err
	}
	return s.confirmTotalFee(ctx, formattedTotal, parseFee(req, coin).Format())
}

// parseFee computes gas price * gas limit in the native unit
func parseFee(req *Request, coin *params.CoinParams) amount.Amount {
	gasPrice := new(big.Int).SetBytes(req.GasPrice)
	gasLimit := new(big.Int).SetBytes(req.GasLimit)
	return amount.Amount{
		Unit:     coin.Unit,
		Decimals: amount.WeiDecimals,
		Value:    gasPrice.Mul(gasPrice, gasLimit),
	}
}

func (s *service) confirm(ctx context.Context, p workflow.ConfirmParams) error {
	ok, err := s.confirmer.Confirm(ctx, p)
	return confirmResult(ok, err)
}

func (s *service) confirmTransaction(ctx context.Context, recipient string, value string) error {
	ok, err := s.confirmer.ConfirmTransaction(ctx, recipient, value)
	return confirmResult(ok, err)
}

func (s *service) confirmTotalFee(ctx context.Context, total string, fee string) error {
	ok, err := s.confirmer.ConfirmTotalFee(ctx, total, fee)
	return confirmResult(ok, err)
}

func confirmResult(ok bool, err error) error {
	if err != nil {
		return errors.Wrap(err, "confirmation failed")
	}
	if !ok {
		return errors.WithStack(ErrUserAbort)
	}
	return nil
}
