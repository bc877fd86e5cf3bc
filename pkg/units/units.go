// Package units converts between wei amounts and decimal strings
package units

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals of the named units
const (
	Wei   int32 = 0
	Gwei  int32 = 9
	Ether int32 = 18
)

// Decimals resolves a unit name ("wei", "gwei", "ether") or a decimal count
func Decimals(unit string) (int32, error) {
	switch strings.ToLower(unit) {
	case "wei":
		return Wei, nil
	case "gwei":
		return Gwei, nil
	case "ether", "eth":
		return Ether, nil
	}
	n, err := strconv.ParseInt(unit, 10, 32)
	if err != nil || n < 0 || n > 77 {
		return 0, fmt.Errorf("invalid unit %q", unit)
	}
	return int32(n), nil
}

// ParseUnits parses a decimal string into an integer amount with decimals places
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}
	return shifted.BigInt(), nil
}

// ParseEther parses an ether amount into wei
func ParseEther(value string) (*big.Int, error) {
	return ParseUnits(value, Ether)
}

// FormatUnits renders amount in the given unit, keeping at least one
// fractional digit ("1.0", "0.5").
func FormatUnits(amount *big.Int, unit string) (string, error) {
	decimals, err := Decimals(unit)
	if err != nil {
		return "", err
	}
	return format(amount, decimals), nil
}

// FormatEther renders a wei amount in ether
func FormatEther(amount *big.Int) string {
	return format(amount, Ether)
}

func format(amount *big.Int, decimals int32) string {
	if amount == nil {
		amount = new(big.Int)
	}
	s := decimal.NewFromBigInt(amount, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
