package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"ooga-booga-go/pkg/types"
)

// Receipt looks up a transaction by hash. A transaction the chain has not
// mined yet comes back with TxPending status and no error.
func (r *Reader) Receipt(ctx context.Context, txHash string) (*types.TransactionReceipt, error) {
	raw, err := hexutil.Decode(txHash)
	if err != nil || len(raw) != common.HashLength {
		return nil, &types.ValidationError{Field: "tx_hash", Reason: "not a transaction hash"}
	}

	receipt, err := r.eth.TransactionReceipt(ctx, common.BytesToHash(raw))
	if errors.Is(err, ethereum.NotFound) {
		return &types.TransactionReceipt{TxHash: txHash, Status: types.TxPending}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: receipt lookup failed: %v", ErrRPC, err)
	}

	status := types.TxFailed
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		status = types.TxConfirmed
	}
	return &types.TransactionReceipt{
		TxHash:      txHash,
		Status:      status,
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}
