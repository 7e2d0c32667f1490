package agmip

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d, nil
}

// NumericToBigInt converts a numeric string to an integer. With round set the value is rounded
// half up, otherwise the fractional part is dropped.
func NumericToBigInt(s string, round bool) (*big.Int, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return nil, err
	}
	if round {
		d = d.Round(0)
	} else {
		d = d.Truncate(0)
	}
	return d.BigInt(), nil
}

// NumericOffset adds offset to initial without binary rounding ("11.22" + "1.12" = "12.34").
func NumericOffset(initial, offset string) (string, error) {
	a, err := parseDecimal(initial)
	if err != nil {
		return "", err
	}
	b, err := parseDecimal(offset)
	if err != nil {
		return "", err
	}
	return a.Add(b).String(), nil
}

// Multiply returns f1*f2 without binary rounding ("1234" * ".01" = "12.34").
func Multiply(f1, f2 string) (string, error) {
	a, err := parseDecimal(f1)
	if err != nil {
		return "", err
	}
	b, err := parseDecimal(f2)
	if err != nil {
		return "", err
	}
	return a.Mul(b).String(), nil
}

// DivideHalfUp divides a by b and rounds the quotient half up to places decimals.
func DivideHalfUp(a, b string, places int32) (decimal.Decimal, error) {
	x, err := parseDecimal(a)
	if err != nil {
		return decimal.Decimal{}, err
	}
	y, err := parseDecimal(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if y.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("divide %s by zero", a)
	}
	return x.DivRound(y, places), nil
}
