package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrSigning indicates a malformed key or an unsignable transaction.
	ErrSigning = errors.New("signing error")

	// ErrInsufficientFunds indicates the wallet cannot cover value plus
	// gas, as reported by the node's simulation or send.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRPC indicates the node rejected or never answered a call.
	ErrRPC = errors.New("rpc error")

	// ErrConfirmationTimeout indicates the receipt did not arrive within
	// the polling bound.
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// RevertedError is a transaction that was mined but reverted. Reason
// carries the decoded revert string when the node exposes revert data.
type RevertedError struct {
	TxHash string
	Reason string
}

func (e *RevertedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
	}
	return fmt.Sprintf("transaction %s reverted", e.TxHash)
}
