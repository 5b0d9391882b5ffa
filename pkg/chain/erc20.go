package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"ooga-booga-go/pkg/types"
)

// The fragment of the ERC-20 interface this package touches.
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var (
	erc20Once     sync.Once
	erc20Parsed   abi.ABI
	erc20ParseErr error
)

// erc20Interface parses the ERC-20 fragment once for the package.
func erc20Interface() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20Parsed, erc20ParseErr = abi.JSON(strings.NewReader(erc20ABI))
	})
	return erc20Parsed, erc20ParseErr
}

// Token metadata is immutable on-chain, so cached entries stay valid for
// a long while.
const metadataTTL = time.Hour

// TokenMetadata is the on-chain identity of a token.
type TokenMetadata struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
}

// Reader performs read-only token lookups against the chain. Metadata is
// served from a TTL cache; balances are always read fresh.
type Reader struct {
	rpc   *rpc.Client
	eth   *ethclient.Client
	cache *cache.Cache
	log   zerolog.Logger
}

// NewReader dials rpcURL for read-only token queries. An empty URL
// selects the public Berachain endpoint.
func NewReader(rpcURL string, log zerolog.Logger) (*Reader, error) {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to RPC endpoint: %v", ErrRPC, err)
	}

	return &Reader{
		rpc:   rpcClient,
		eth:   ethclient.NewClient(rpcClient),
		cache: cache.New(metadataTTL, 2*metadataTTL),
		log:   log,
	}, nil
}

// TokenMetadata reads a token's symbol, name and decimals, serving
// repeats from the cache. The native zero address resolves to BERA
// without a network call.
func (r *Reader) TokenMetadata(ctx context.Context, token string) (*TokenMetadata, error) {
	if !common.IsHexAddress(token) {
		return nil, &types.ValidationError{Field: "token", Reason: "not a hex address"}
	}

	key := strings.ToLower(token)
	if cached, ok := r.cache.Get(key); ok {
		meta := cached.(TokenMetadata)
		return &meta, nil
	}

	var meta TokenMetadata
	if types.SameAddress(token, types.NativeAddress) {
		meta = TokenMetadata{Address: types.NativeAddress, Name: "Berachain", Symbol: "BERA", Decimals: 18}
	} else {
		erc20, err := erc20Interface()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse ERC20 ABI: %v", ErrRPC, err)
		}
		addr := common.HexToAddress(token)

		symbol, err := r.callString(ctx, erc20, addr, "symbol")
		if err != nil {
			return nil, err
		}
		name, err := r.callString(ctx, erc20, addr, "name")
		if err != nil {
			return nil, err
		}
		decimals, err := r.callDecimals(ctx, erc20, addr)
		if err != nil {
			return nil, err
		}
		meta = TokenMetadata{Address: token, Name: name, Symbol: symbol, Decimals: decimals}
	}

	r.cache.Set(key, meta, cache.DefaultExpiration)
	return &meta, nil
}

// Balance reads owner's balance of a single token, the native one for the
// zero address.
func (r *Reader) Balance(ctx context.Context, owner, token string) (*big.Int, error) {
	balances, err := r.Balances(ctx, owner, []string{token})
	if err != nil {
		return nil, err
	}
	balance, ok := balances[token]
	if !ok {
		return nil, fmt.Errorf("%w: balance read failed for %s", ErrRPC, token)
	}
	return balance, nil
}

// Balances reads owner's balance for every token in one batched RPC round
// trip: eth_getBalance for the native zero address, eth_call balanceOf
// otherwise. Tokens whose element fails are left out of the result.
func (r *Reader) Balances(ctx context.Context, owner string, tokens []string) (map[string]*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, &types.ValidationError{Field: "owner", Reason: "not a hex address"}
	}
	if len(tokens) == 0 {
		return map[string]*big.Int{}, nil
	}

	erc20, err := erc20Interface()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse ERC20 ABI: %v", ErrRPC, err)
	}
	ownerAddr := common.HexToAddress(owner)
	calldata, err := erc20.Pack("balanceOf", ownerAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to pack balanceOf: %v", ErrRPC, err)
	}

	results := make([]string, len(tokens))
	batch := make([]rpc.BatchElem, 0, len(tokens))
	for i, token := range tokens {
		if !common.IsHexAddress(token) {
			return nil, &types.ValidationError{Field: "token", Reason: fmt.Sprintf("%s is not a hex address", token)}
		}
		if types.SameAddress(token, types.NativeAddress) {
			batch = append(batch, rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{ownerAddr, "latest"},
				Result: &results[i],
			})
			continue
		}
		call := map[string]interface{}{
			"to":   common.HexToAddress(token),
			"data": hexutil.Bytes(calldata),
		}
		batch = append(batch, rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{call, "latest"},
			Result: &results[i],
		})
	}

	if err := r.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("%w: balance batch failed: %v", ErrRPC, err)
	}

	balances := make(map[string]*big.Int, len(tokens))
	for i, elem := range batch {
		if elem.Error != nil {
			r.log.Debug().Str("token", tokens[i]).Err(elem.Error).Msg("balance call failed")
			continue
		}
		if elem.Method == "eth_getBalance" {
			balance, decodeErr := hexutil.DecodeBig(results[i])
			if decodeErr != nil {
				continue
			}
			balances[tokens[i]] = balance
			continue
		}
		raw, decodeErr := hexutil.Decode(results[i])
		if decodeErr != nil {
			continue
		}
		balances[tokens[i]] = new(big.Int).SetBytes(raw)
	}
	return balances, nil
}

func (r *Reader) callString(ctx context.Context, erc20 abi.ABI, token common.Address, method string) (string, error) {
	data, err := erc20.Pack(method)
	if err != nil {
		return "", fmt.Errorf("%w: failed to pack %s: %v", ErrRPC, method, err)
	}
	out, err := r.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s call failed: %v", ErrRPC, method, err)
	}
	var s string
	if err := erc20.UnpackIntoInterface(&s, method, out); err != nil {
		return "", fmt.Errorf("%w: failed to unpack %s: %v", ErrRPC, method, err)
	}
	return s, nil
}

func (r *Reader) callDecimals(ctx context.Context, erc20 abi.ABI, token common.Address) (uint8, error) {
	data, err := erc20.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("%w: failed to pack decimals: %v", ErrRPC, err)
	}
	out, err := r.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: decimals call failed: %v", ErrRPC, err)
	}
	var d uint8
	if err := erc20.UnpackIntoInterface(&d, "decimals", out); err != nil {
		return 0, fmt.Errorf("%w: failed to unpack decimals: %v", ErrRPC, err)
	}
	return d, nil
}

// Close releases the RPC connection.
func (r *Reader) Close() {
	r.eth.Close()
}
