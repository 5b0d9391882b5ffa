package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ooga-booga-go/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is the aggregation API's mainnet endpoint.
const DefaultBaseURL = "https://mainnet.api.oogabooga.io"

// defaultTimeout bounds calls whose context carries no deadline.
const defaultTimeout = 30 * time.Second

// Transport issues authenticated JSON requests to the aggregation API and
// decodes responses into the typed models. The underlying http.Client
// pools connections across calls; a Transport is safe for concurrent use.
type Transport struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     zerolog.Logger
}

// NewTransport builds a transport for the given API key. An empty baseURL
// selects the mainnet endpoint, a non-positive timeout the default, and
// rps <= 0 disables client-side pacing.
func NewTransport(apiKey, baseURL string, timeout time.Duration, rps float64, log zerolog.Logger) *Transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		log:     log,
	}
}

// TokenList fetches the tokens the aggregator can route through.
func (t *Transport) TokenList(ctx context.Context) ([]types.Token, error) {
	var tokens []types.Token
	if err := t.do(ctx, http.MethodGet, "/v1/tokens", nil, nil, &tokens); err != nil {
		return nil, err
	}
	for i := range tokens {
		if tokens[i].Address == "" {
			return nil, &DecodeError{Endpoint: "/v1/tokens", Err: fmt.Errorf("token %d missing address", i)}
		}
	}
	return tokens, nil
}

// TokenPrices fetches USD price snapshots for all listed tokens.
func (t *Transport) TokenPrices(ctx context.Context) ([]types.TokenPrice, error) {
	query := url.Values{}
	query.Set("currency", "USD")

	var prices []types.TokenPrice
	if err := t.do(ctx, http.MethodGet, "/v1/prices", query, nil, &prices); err != nil {
		return nil, err
	}
	for i := range prices {
		if prices[i].Address == "" || prices[i].Price < 0 {
			return nil, &DecodeError{Endpoint: "/v1/prices", Err: fmt.Errorf("price %d malformed", i)}
		}
	}
	return prices, nil
}

// LiquiditySources fetches the names of the venues the aggregator routes
// through.
func (t *Transport) LiquiditySources(ctx context.Context) ([]types.LiquiditySource, error) {
	var sources []types.LiquiditySource
	if err := t.do(ctx, http.MethodGet, "/v1/liquidity-sources", nil, nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Allowance fetches how much of token the router may currently spend on
// owner's behalf. The Spender field is left for the caller to fill.
func (t *Transport) Allowance(ctx context.Context, owner, token string) (*types.Allowance, error) {
	if !types.ValidAddress(owner) {
		return nil, &types.ValidationError{Field: "from", Reason: "not a hex address"}
	}
	if !types.ValidAddress(token) {
		return nil, &types.ValidationError{Field: "token", Reason: "not a hex address"}
	}

	query := url.Values{}
	query.Set("token", token)
	query.Set("from", owner)

	var resp struct {
		Allowance string `json:"allowance"`
	}
	if err := t.do(ctx, http.MethodGet, "/v1/approve/allowance", query, nil, &resp); err != nil {
		return nil, err
	}

	amount, err := types.ParseWei(resp.Allowance)
	if err != nil {
		return nil, &DecodeError{Endpoint: "/v1/approve/allowance", Err: err}
	}
	return &types.Allowance{Owner: owner, Token: token, Amount: amount}, nil
}

// swapRequest is the quote request body.
type swapRequest struct {
	TokenIn  string  `json:"tokenIn"`
	TokenOut string  `json:"tokenOut"`
	Amount   string  `json:"amount"`
	To       string  `json:"to"`
	Slippage float64 `json:"slippage"`
}

// SwapQuote asks the aggregator to route the swap described by params.
// Params are validated first; nothing is sent for invalid input.
func (t *Transport) SwapQuote(ctx context.Context, params types.SwapParams) (*types.SwapRoute, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	body := swapRequest{
		TokenIn:  params.TokenIn,
		TokenOut: params.TokenOut,
		Amount:   params.Amount.String(),
		To:       params.To,
		Slippage: params.Slippage,
	}

	var route types.SwapRoute
	if err := t.do(ctx, http.MethodPost, "/v1/swap", nil, body, &route); err != nil {
		return nil, err
	}

	switch route.Status {
	case types.RouteNotFound:
		return nil, fmt.Errorf("%w for %s -> %s", ErrNoRoute, params.TokenIn, params.TokenOut)
	case types.RouteFound, types.RoutePartial:
		if route.Tx.To == "" {
			return nil, &DecodeError{Endpoint: "/v1/swap", Err: errors.New("quote missing transaction payload")}
		}
		return &route, nil
	default:
		return nil, &DecodeError{Endpoint: "/v1/swap", Err: fmt.Errorf("unknown quote status %q", route.Status)}
	}
}

// do performs one authenticated request and decodes the 2xx response body
// into out. Calls without a deadline get the transport's default timeout.
func (t *Transport) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return classify(err)
	}

	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	t.log.Debug().Str("method", method).Str("path", path).Msg("api request")

	resp, err := t.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Endpoint: path, Err: err}
	}
	return nil
}

// classify maps transport failures onto the error taxonomy: deadline
// expiry is a timeout, cancellation passes through, everything else is a
// network error.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

// newAPIError keeps the raw body and pulls out the API's message field
// when the body carries one.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: string(body)}

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
	}
	return apiErr
}
