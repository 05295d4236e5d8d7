package chain

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	// Day is one day in seconds.
	Day uint64 = 86400

	// Week is one week in seconds.
	Week uint64 = 7 * Day
)

var (
	// WeiPerEther is 10^18, the base-unit scale of an 18 decimal token.
	WeiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// MaxUint256 is 2^256 - 1, the "infinite" allowance.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Ether returns n * 10^18.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), WeiPerEther)
}

// Pow10 returns 10^n.
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ParseEther parses a decimal string such as "1.5" or "1000000" into
// 18-decimal base units. More than 18 fractional digits is an error.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, 18)
}

// ParseUnits parses a decimal string into base units with the given decimals.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))
	if whole == "" {
		whole = "0"
	}
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// FormatEther renders 18-decimal base units as a decimal string without
// trailing fractional zeros.
func FormatEther(v *big.Int) string {
	if v == nil {
		return "0"
	}
	q, r := new(big.Int).QuoRem(v, WeiPerEther, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	digits := new(big.Int).Abs(r).String()
	frac := strings.Repeat("0", 18-len(digits)) + digits
	sign := ""
	if v.Sign() < 0 && q.Sign() == 0 {
		sign = "-"
	}
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}

// MinBig returns the smaller of a and b.
func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Clone returns an independent copy of v (nil becomes zero).
func Clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
