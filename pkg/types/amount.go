package types

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseWei parses a decimal wei string as emitted by the aggregation API.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return n, nil
}

// ToWei converts a human-readable amount such as "1.5" to wei for a token
// with the given decimals.
func ToWei(amount string, decimals uint8) (*big.Int, error) {
	f, ok := new(big.Float).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if f.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	mul := new(big.Float).SetInt(pow10(decimals))
	f.Mul(f, mul)
	wei, _ := f.Int(nil)
	return wei, nil
}

// FromWei renders a wei amount with up to four decimal places, trailing
// zeros trimmed.
func FromWei(wei *big.Int, decimals uint8) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt(pow10(decimals)))
	s := strings.TrimRight(f.Text('f', 4), "0")
	return strings.TrimSuffix(s, ".")
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
