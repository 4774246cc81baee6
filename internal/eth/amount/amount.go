// Package amount renders fixed-point coin values with arbitrary precision.
package amount

import (
	"math/big"
	"strings"
)

// WeiDecimals is the number of fractional digits of the native unit:
// 1 ETH = 1e18 wei.
const WeiDecimals = 18

// Amount is a non-negative value of Unit with Decimals fractional digits.
// Value is the magnitude in the smallest unit (e.g. wei).
type Amount struct {
	Unit     string
	Decimals uint
	Value    *big.Int
}

// Format renders the amount as "<integer>[.<fraction>] <unit>". The fraction
// is truncated exactly at Decimals digits; trailing zeroes are stripped and a
// fraction of all zeroes is omitted entirely.
func (a Amount) Format() string {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.Decimals)), nil)
	quo, rem := new(big.Int).QuoRem(a.Value, divisor, new(big.Int))

	var b strings.Builder
	b.WriteString(quo.String())

	if rem.Sign() != 0 {
		frac := rem.String()
		if pad := int(a.Decimals) - len(frac); pad > 0 {
			frac = strings.Repeat("0", pad) + frac
		}
		frac = strings.TrimRight(frac, "0")
		b.WriteByte('.')
		b.WriteString(frac)
	}

	b.WriteByte(' ')
	b.WriteString(a.Unit)
	return b.String()
}
