package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ooga-booga-go/pkg/chain"
	"ooga-booga-go/pkg/types"
)

// DefaultRouter is the aggregation router contract on Berachain mainnet,
// the spender all approvals are granted to.
const DefaultRouter = "0xFd88aD4849BA0F729D6fF4bC27Ff948Ab1Ac3dE7"

// Signer signs and submits transactions against the chain. Implemented by
// chain.Signer; narrowed here so tests can substitute their own.
type Signer interface {
	ApproveAllowance(ctx context.Context, token string, amount *big.Int) (*types.TransactionReceipt, error)
	SubmitSwap(ctx context.Context, route *types.SwapRoute) (*types.TransactionReceipt, error)
	Address() string
}

// Config carries everything a Client needs. It is read once at
// construction and never mutated afterwards.
type Config struct {
	APIKey        string        // aggregation API key, required
	PrivateKey    string        // hex wallet key, 0x prefix optional
	RPCURL        string        // Berachain JSON-RPC, public endpoint when empty
	BaseURL       string        // API base, DefaultBaseURL when empty
	RouterAddress string        // approval spender, DefaultRouter when empty
	Timeout       time.Duration // per-request default when ctx has no deadline
	PollInterval  time.Duration // receipt poll spacing
	PollAttempts  int           // receipt poll bound
	RateLimit     float64       // API requests/sec, 0 disables pacing
	Logger        zerolog.Logger
}

// Client is the public facade over the HTTP transport and the chain
// signer. Methods are safe for concurrent use: each call produces a fresh
// result and none mutates shared state.
type Client struct {
	transport *Transport
	signer    Signer
	router    string
	log       zerolog.Logger
}

// New builds a Client per cfg, deriving the signer from the private key.
// Construction validates the configuration; for HTTP RPC endpoints no
// network traffic happens until the first call.
func New(cfg Config) (*Client, error) {
	if cfg.PrivateKey == "" {
		return nil, &types.ValidationError{Field: "private_key", Reason: "required"}
	}

	router := cfg.RouterAddress
	if router == "" {
		router = DefaultRouter
	}
	signer, err := chain.NewSigner(chain.SignerConfig{
		PrivateKey:   cfg.PrivateKey,
		RPCURL:       cfg.RPCURL,
		Router:       router,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return NewWithSigner(cfg, signer)
}

// NewWithSigner builds a Client around an existing signer. A nil signer
// leaves the read-only API surface usable; signing operations fail with a
// ValidationError.
func NewWithSigner(cfg Config, signer Signer) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &types.ValidationError{Field: "api_key", Reason: "required"}
	}
	router := cfg.RouterAddress
	if router == "" {
		router = DefaultRouter
	}
	if !types.ValidAddress(router) {
		return nil, &types.ValidationError{Field: "router_address", Reason: "not a hex address"}
	}

	return &Client{
		transport: NewTransport(cfg.APIKey, cfg.BaseURL, cfg.Timeout, cfg.RateLimit, cfg.Logger),
		signer:    signer,
		router:    router,
		log:       cfg.Logger,
	}, nil
}

// GetTokenList returns all tokens the aggregator can route through.
func (c *Client) GetTokenList(ctx context.Context) ([]types.Token, error) {
	tokens, err := c.transport.TokenList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	return tokens, nil
}

// GetTokenPrices returns a USD price snapshot for every listed token.
func (c *Client) GetTokenPrices(ctx context.Context) ([]types.TokenPrice, error) {
	prices, err := c.transport.TokenPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	return prices, nil
}

// GetLiquiditySources returns the venues the aggregator routes through.
func (c *Client) GetLiquiditySources(ctx context.Context) ([]types.LiquiditySource, error) {
	sources, err := c.transport.LiquiditySources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidity sources: %w", err)
	}
	return sources, nil
}

// GetTokenAllowance returns the router's current allowance to spend
// owner's balance of token.
func (c *Client) GetTokenAllowance(ctx context.Context, owner, token string) (*types.Allowance, error) {
	allowance, err := c.transport.Allowance(ctx, owner, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}
	allowance.Spender = c.router
	return allowance, nil
}

// ApproveAllowance approves the router to spend amount of token and waits
// for the approval to confirm. A nil amount approves the unlimited
// types.MaxApproval sentinel; a zero amount resets the allowance.
// Decreasing a non-zero allowance may require a zero reset first on some
// tokens; such failures are surfaced, not worked around.
func (c *Client) ApproveAllowance(ctx context.Context, token string, amount *big.Int) (*types.TransactionReceipt, error) {
	if c.signer == nil {
		return nil, &types.ValidationError{Field: "private_key", Reason: "required for approvals"}
	}
	if !types.ValidAddress(token) {
		return nil, &types.ValidationError{Field: "token", Reason: "not a hex address"}
	}
	if amount == nil {
		amount = types.MaxApproval
	}

	receipt, err := c.signer.ApproveAllowance(ctx, token, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to approve %s: %w", token, err)
	}
	return receipt, nil
}

// QuoteSwap validates params and asks the aggregator for a route without
// signing or submitting anything.
func (c *Client) QuoteSwap(ctx context.Context, params types.SwapParams) (*types.SwapRoute, error) {
	route, err := c.transport.SwapQuote(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return route, nil
}

// SubmitSwap signs and submits a quoted route and waits for its receipt.
func (c *Client) SubmitSwap(ctx context.Context, route *types.SwapRoute) (*types.TransactionReceipt, error) {
	if c.signer == nil {
		return nil, &types.ValidationError{Field: "private_key", Reason: "required for swaps"}
	}

	receipt, err := c.signer.SubmitSwap(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("failed to submit swap: %w", err)
	}
	return receipt, nil
}

// Swap runs the full pipeline: validate params, fetch exactly one quote,
// then submit at most one transaction. A quote failure aborts before
// anything is signed, leaving no partial state.
func (c *Client) Swap(ctx context.Context, params types.SwapParams) (*types.TransactionReceipt, error) {
	if c.signer == nil {
		return nil, &types.ValidationError{Field: "private_key", Reason: "required for swaps"}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	route, err := c.QuoteSwap(ctx, params)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("token_in", params.TokenIn).
		Str("token_out", params.TokenOut).
		Str("amount", params.Amount.String()).
		Float64("price_impact", route.PriceImpact).
		Msg("route found, submitting swap")

	return c.SubmitSwap(ctx, route)
}

// FindToken resolves a symbol or address against the aggregator's token
// list. Symbol matching is case-insensitive, exact before partial.
func (c *Client) FindToken(ctx context.Context, symbolOrAddress string) (*types.Token, error) {
	tokens, err := c.GetTokenList(ctx)
	if err != nil {
		return nil, err
	}

	if types.ValidAddress(symbolOrAddress) {
		for i := range tokens {
			if types.SameAddress(tokens[i].Address, symbolOrAddress) {
				return &tokens[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, symbolOrAddress)
	}

	symbol := strings.ToUpper(symbolOrAddress)
	for i := range tokens {
		if strings.ToUpper(tokens[i].Symbol) == symbol {
			return &tokens[i], nil
		}
	}
	for i := range tokens {
		if strings.Contains(strings.ToUpper(tokens[i].Symbol), symbol) {
			return &tokens[i], nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrTokenNotFound, symbolOrAddress)
}

// Wallet returns the signing wallet's address, empty without a signer.
func (c *Client) Wallet() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address()
}

// Router returns the spender contract approvals are granted to.
func (c *Client) Router() string {
	return c.router
}

// Close releases the signer's RPC connection when it holds one.
func (c *Client) Close() {
	if closer, ok := c.signer.(interface{ Close() }); ok {
		closer.Close()
	}
}
