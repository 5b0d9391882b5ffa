package types

// TxStatus tracks a submitted transaction through confirmation.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// TransactionReceipt summarizes a submitted transaction after confirmation
// polling.
type TransactionReceipt struct {
	TxHash      string   `json:"tx_hash"`
	Status      TxStatus `json:"status"`
	GasUsed     uint64   `json:"gas_used"`
	BlockNumber uint64   `json:"block_number"`
}

// Confirmed reports whether the transaction was mined successfully.
func (r *TransactionReceipt) Confirmed() bool {
	return r.Status == TxConfirmed
}
