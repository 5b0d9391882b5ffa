package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeAddress is the zero address the aggregation API uses to identify
// the chain's native BERA balance.
const NativeAddress = "0x0000000000000000000000000000000000000000"

// Token describes a token the aggregator can route through.
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	TokenURI string `json:"tokenURI,omitempty"`
}

// IsNative reports whether the token is the native BERA entry.
func (t Token) IsNative() bool {
	return SameAddress(t.Address, NativeAddress)
}

// TokenPrice is a USD price snapshot for a single token. Prices are
// point-in-time reads and are never cached across calls.
type TokenPrice struct {
	Address string  `json:"address"`
	Price   float64 `json:"price"`
}

// LiquiditySource names an on-chain venue the aggregator can route through.
// The API returns these as a bare array of names.
type LiquiditySource string

// ValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// SameAddress compares two hex addresses ignoring case.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
