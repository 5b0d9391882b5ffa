package parser

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// SwapCommand is a parsed swap instruction. Tokens are symbols or
// addresses as typed; resolution against the aggregator's token list
// happens later.
type SwapCommand struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// Pattern: <amount> <source_token> TO <dest_token>
// Matches: "1 BERA TO HONEY", "1.5 HONEY TO WBERA", "100.25 0xFCBD... TO BERA"
var commandPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+(\$?[A-Za-z0-9]+)\s+[Tt][Oo]\s+(\$?[A-Za-z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 BERA to HONEY"
//   - "1.5 HONEY to WBERA"
//   - "100 HONEY to 0x6969696969696969696969696969696969696969"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.TrimSpace(command)

	// Remove the word "swap" if present at the beginning
	if len(command) > 5 && strings.EqualFold(command[:5], "swap ") {
		command = command[5:]
	}

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '1 BERA to HONEY')")
	}

	cmd := &SwapCommand{
		Amount:      matches[1],
		SourceToken: NormalizeToken(matches[2]),
		DestToken:   NormalizeToken(matches[3]),
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Validate rejects commands that parse but cannot be swapped.
func (c *SwapCommand) Validate() error {
	if c.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if c.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if c.SourceToken == c.DestToken {
		return fmt.Errorf("source and destination tokens must differ")
	}
	amount, ok := new(big.Float).SetString(c.Amount)
	if !ok {
		return fmt.Errorf("invalid amount: %s", c.Amount)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

// NormalizeToken upcases a token symbol and strips a leading ticker
// prefix. Addresses pass through with only the prefix strip.
func NormalizeToken(token string) string {
	token = strings.TrimPrefix(strings.TrimSpace(token), "$")
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		return token
	}
	return strings.ToUpper(token)
}
