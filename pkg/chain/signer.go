package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"ooga-booga-go/pkg/types"
)

// DefaultRPCURL is the public Berachain mainnet endpoint.
const DefaultRPCURL = "https://rpc.berachain.com"

// Berachain blocks arrive about every two seconds; 60 attempts bound the
// receipt wait at roughly two minutes.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 60
)

// SignerConfig configures a Signer. Router is the spender approvals are
// granted to; PrivateKey accepts an optional 0x prefix.
type SignerConfig struct {
	PrivateKey   string
	RPCURL       string
	Router       string
	PollInterval time.Duration
	PollAttempts int
	Logger       zerolog.Logger
}

// Signer holds the wallet key and submits approval and swap transactions
// to the chain. Safe for concurrent use; nonces come from the node's
// pending count at submission time.
type Signer struct {
	client       *ethclient.Client
	key          *ecdsa.PrivateKey
	from         common.Address
	router       common.Address
	pollInterval time.Duration
	pollAttempts int
	log          zerolog.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// parseKey decodes a hex private key, 0x prefix optional, and derives
// its wallet address.
func parseKey(privateKey string) (*ecdsa.PrivateKey, common.Address, error) {
	if privateKey == "" {
		return nil, common.Address{}, fmt.Errorf("%w: private key not configured", ErrSigning)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("%w: invalid private key: %v", ErrSigning, err)
	}
	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("%w: failed to derive public key", ErrSigning)
	}
	return key, crypto.PubkeyToAddress(*publicKey), nil
}

// AddressFromKey derives the wallet address a private key controls.
func AddressFromKey(privateKey string) (string, error) {
	_, from, err := parseKey(privateKey)
	if err != nil {
		return "", err
	}
	return from.Hex(), nil
}

// NewSigner parses the key and prepares the RPC connection. For HTTP
// endpoints no network traffic happens until the first operation.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	key, from, err := parseKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(cfg.Router) {
		return nil, fmt.Errorf("%w: invalid router address %q", ErrSigning, cfg.Router)
	}

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to RPC endpoint: %v", ErrRPC, err)
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}

	return &Signer{
		client:       client,
		key:          key,
		from:         from,
		router:       common.HexToAddress(cfg.Router),
		pollInterval: interval,
		pollAttempts: attempts,
		log:          cfg.Logger,
	}, nil
}

// Address returns the wallet address derived from the private key.
func (s *Signer) Address() string {
	return s.from.Hex()
}

// Router returns the spender address approvals are granted to.
func (s *Signer) Router() string {
	return s.router.Hex()
}

// ChainID returns the node's chain ID, fetched once and cached. A failed
// fetch is retried on the next call.
func (s *Signer) ChainID(ctx context.Context) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chainID != nil {
		return s.chainID, nil
	}

	id, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain id: %v", ErrRPC, err)
	}
	s.chainID = id
	return id, nil
}

// ApproveAllowance signs and submits an ERC-20 approval granting the
// router permission to spend amount of token, then waits for the receipt.
// A zero amount resets the allowance; types.MaxApproval means unlimited.
func (s *Signer) ApproveAllowance(ctx context.Context, token string, amount *big.Int) (*types.TransactionReceipt, error) {
	if !common.IsHexAddress(token) {
		return nil, &types.ValidationError{Field: "token", Reason: "not a hex address"}
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, &types.ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	erc20, err := erc20Interface()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse ERC20 ABI: %v", ErrSigning, err)
	}
	data, err := erc20.Pack("approve", s.router, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to pack approve data: %v", ErrSigning, err)
	}

	s.log.Info().
		Str("token", token).
		Str("spender", s.router.Hex()).
		Str("amount", amount.String()).
		Msg("approving allowance")

	return s.send(ctx, common.HexToAddress(token), big.NewInt(0), data)
}

// SubmitSwap signs and submits the transaction attached to a quoted route
// and waits for the receipt.
func (s *Signer) SubmitSwap(ctx context.Context, route *types.SwapRoute) (*types.TransactionReceipt, error) {
	if route == nil || !route.Found() {
		return nil, &types.ValidationError{Field: "route", Reason: "no executable route"}
	}
	if !common.IsHexAddress(route.Tx.To) {
		return nil, &types.ValidationError{Field: "route", Reason: "malformed transaction target"}
	}

	data, err := hexutil.Decode(route.Tx.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed transaction calldata: %v", ErrSigning, err)
	}

	value := big.NewInt(0)
	if route.Tx.Value != "" {
		value, err = parseTxValue(route.Tx.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed transaction value: %v", ErrSigning, err)
		}
	}

	return s.send(ctx, common.HexToAddress(route.Tx.To), value, data)
}

// send runs the shared pipeline: nonce, gas price, gas estimate, sign,
// submit, then poll for the receipt.
func (s *Signer) send(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.TransactionReceipt, error) {
	chainID, err := s.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get nonce: %v", ErrRPC, err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gas price: %v", ErrRPC, err)
	}

	msg := ethereum.CallMsg{From: s.from, To: &to, Value: value, Data: data}
	gasLimit, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		if isInsufficientFunds(err) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
		return nil, fmt.Errorf("%w: failed to estimate gas: %v", ErrRPC, err)
	}
	gasLimit = gasLimit * 120 / 100 // 20% buffer

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign transaction: %v", ErrSigning, err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		if isInsufficientFunds(err) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
		return nil, fmt.Errorf("%w: failed to send transaction: %v", ErrRPC, err)
	}

	txHash := signedTx.Hash()
	s.log.Info().
		Str("tx", txHash.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas_limit", gasLimit).
		Msg("transaction submitted")

	return s.waitForReceipt(ctx, txHash)
}

// waitForReceipt polls at the configured interval, bounded by the attempt
// count, honoring cancellation between polls.
func (s *Signer) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.TransactionReceipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return s.minedReceipt(ctx, txHash, receipt)
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: failed to get transaction receipt: %v", ErrRPC, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, fmt.Errorf("%w: transaction %s not confirmed after %d attempts",
		ErrConfirmationTimeout, txHash.Hex(), s.pollAttempts)
}

// minedReceipt turns a node receipt into the confirmed result, or a
// RevertedError when the transaction failed on-chain.
func (s *Signer) minedReceipt(ctx context.Context, txHash common.Hash, receipt *ethtypes.Receipt) (*types.TransactionReceipt, error) {
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		s.log.Info().
			Str("tx", txHash.Hex()).
			Uint64("block", receipt.BlockNumber.Uint64()).
			Uint64("gas_used", receipt.GasUsed).
			Msg("transaction confirmed")

		return &types.TransactionReceipt{
			TxHash:      txHash.Hex(),
			Status:      types.TxConfirmed,
			GasUsed:     receipt.GasUsed,
			BlockNumber: receipt.BlockNumber.Uint64(),
		}, nil
	}

	reason := s.revertReason(ctx, txHash, receipt.BlockNumber)
	return nil, &RevertedError{TxHash: txHash.Hex(), Reason: reason}
}

// revertReason replays the transaction at its mined block and decodes the
// revert data when the node returns any.
func (s *Signer) revertReason(ctx context.Context, txHash common.Hash, blockNumber *big.Int) string {
	tx, _, err := s.client.TransactionByHash(ctx, txHash)
	if err != nil {
		return ""
	}

	msg := ethereum.CallMsg{
		From:     s.from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	_, err = s.client.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(hexData); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}

// Close releases the RPC connection.
func (s *Signer) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// parseTxValue accepts the API's value encodings, hex quantity or decimal
// string.
func parseTxValue(v string) (*big.Int, error) {
	if strings.HasPrefix(v, "0x") {
		return hexutil.DecodeBig(v)
	}
	return types.ParseWei(v)
}

// isInsufficientFunds matches the message nodes return when the wallet
// cannot cover value plus gas.
func isInsufficientFunds(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}
