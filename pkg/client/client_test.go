package client

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"ooga-booga-go/pkg/types"
)

const quoteOK = `{
	"status": "Success",
	"price": 0.5,
	"priceImpact": 0.001,
	"amountIn": "1000000000000000000",
	"assumedAmountOut": "500000000000000000",
	"route": [],
	"tx": {"to": "` + routerAddr + `", "data": "0xdeadbeef", "value": "0"}
}`

const tokenListOK = `[
	{"address": "0x0000000000000000000000000000000000000000", "name": "Berachain", "symbol": "BERA", "decimals": 18},
	{"address": "` + honeyAddr + `", "name": "Honey", "symbol": "HONEY", "decimals": 18},
	{"address": "` + wberaAddr + `", "name": "Wrapped BERA", "symbol": "WBERA", "decimals": 18}
]`

type signerCall struct {
	token  string
	amount *big.Int
}

type fakeSigner struct {
	approves  []signerCall
	submits   int
	lastRoute *types.SwapRoute
	submitErr error
}

func (f *fakeSigner) ApproveAllowance(ctx context.Context, token string, amount *big.Int) (*types.TransactionReceipt, error) {
	f.approves = append(f.approves, signerCall{token: token, amount: amount})
	return &types.TransactionReceipt{TxHash: "0xapprove", Status: types.TxConfirmed}, nil
}

func (f *fakeSigner) SubmitSwap(ctx context.Context, route *types.SwapRoute) (*types.TransactionReceipt, error) {
	f.submits++
	f.lastRoute = route
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &types.TransactionReceipt{TxHash: "0xswap", Status: types.TxConfirmed, GasUsed: 21000}, nil
}

func (f *fakeSigner) Address() string {
	return walletAddr
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeSigner, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	signer := &fakeSigner{}
	apiClient, err := NewWithSigner(Config{
		APIKey:  testKey,
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	}, signer)
	if err != nil {
		t.Fatalf("NewWithSigner: %v", err)
	}
	return apiClient, signer, &requests
}

func TestNewRequiresKeys(t *testing.T) {
	var verr *types.ValidationError

	_, err := New(Config{APIKey: testKey})
	if !errors.As(err, &verr) || verr.Field != "private_key" {
		t.Fatalf("expected private_key ValidationError, got %v", err)
	}

	_, err = NewWithSigner(Config{}, nil)
	if !errors.As(err, &verr) || verr.Field != "api_key" {
		t.Fatalf("expected api_key ValidationError, got %v", err)
	}

	_, err = NewWithSigner(Config{APIKey: testKey, RouterAddress: "nope"}, nil)
	if !errors.As(err, &verr) || verr.Field != "router_address" {
		t.Fatalf("expected router_address ValidationError, got %v", err)
	}
}

func TestSwapQuotesOnceSubmitsOnce(t *testing.T) {
	apiClient, signer, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/swap" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(quoteOK))
	})

	receipt, err := apiClient.Swap(context.Background(), validSwapParams())
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if receipt.TxHash != "0xswap" || !receipt.Confirmed() {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	if got := requests.Load(); got != 1 {
		t.Fatalf("expected exactly 1 quote request, got %d", got)
	}
	if signer.submits != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", signer.submits)
	}
	if signer.lastRoute.Tx.Data != "0xdeadbeef" {
		t.Fatalf("signer got the wrong route: %+v", signer.lastRoute)
	}
}

func TestSwapQuoteFailureSubmitsNothing(t *testing.T) {
	apiClient, signer, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"router exploded"}`))
	})

	_, err := apiClient.Swap(context.Background(), validSwapParams())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected a 500 APIError, got %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
	if signer.submits != 0 {
		t.Fatalf("a failed quote must never be submitted, got %d submissions", signer.submits)
	}
}

func TestSwapInvalidParamsTouchesNothing(t *testing.T) {
	apiClient, signer, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteOK))
	})

	params := validSwapParams()
	params.Amount = big.NewInt(-5)

	_, err := apiClient.Swap(context.Background(), params)
	var verr *types.ValidationError
	if !errors.As(err, &verr) || verr.Field != "amount" {
		t.Fatalf("expected amount ValidationError, got %v", err)
	}

	if got := requests.Load(); got != 0 {
		t.Fatalf("invalid params must produce zero requests, got %d", got)
	}
	if signer.submits != 0 || len(signer.approves) != 0 {
		t.Fatal("invalid params must not touch the signer")
	}
}

func TestSwapWithoutSignerFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteOK))
	}))
	t.Cleanup(server.Close)

	apiClient, err := NewWithSigner(Config{APIKey: testKey, BaseURL: server.URL, Logger: zerolog.Nop()}, nil)
	if err != nil {
		t.Fatalf("NewWithSigner: %v", err)
	}

	var verr *types.ValidationError
	if _, err := apiClient.Swap(context.Background(), validSwapParams()); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := apiClient.SubmitSwap(context.Background(), &types.SwapRoute{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if apiClient.Wallet() != "" {
		t.Fatal("walletless client must report an empty address")
	}

	// Close must not panic without a signer
	apiClient.Close()
}

func TestApproveAllowanceDefaultsToUnlimited(t *testing.T) {
	apiClient, signer, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	receipt, err := apiClient.ApproveAllowance(context.Background(), honeyAddr, nil)
	if err != nil {
		t.Fatalf("ApproveAllowance: %v", err)
	}
	if !receipt.Confirmed() {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	if len(signer.approves) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(signer.approves))
	}
	if signer.approves[0].amount.Cmp(types.MaxApproval) != 0 {
		t.Fatalf("nil amount should approve MaxApproval, got %s", signer.approves[0].amount)
	}
}

func TestApproveAllowanceZeroRevokes(t *testing.T) {
	apiClient, signer, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := apiClient.ApproveAllowance(context.Background(), honeyAddr, big.NewInt(0)); err != nil {
		t.Fatalf("ApproveAllowance: %v", err)
	}
	if signer.approves[0].amount.Sign() != 0 {
		t.Fatalf("expected a zero approval, got %s", signer.approves[0].amount)
	}
}

func TestApproveAllowanceValidation(t *testing.T) {
	apiClient, signer, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := apiClient.ApproveAllowance(context.Background(), "HONEY", nil)
	var verr *types.ValidationError
	if !errors.As(err, &verr) || verr.Field != "token" {
		t.Fatalf("expected token ValidationError, got %v", err)
	}
	if len(signer.approves) != 0 {
		t.Fatal("invalid token must not reach the signer")
	}
}

func TestGetTokenAllowanceFillsSpender(t *testing.T) {
	apiClient, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"allowance":"42"}`))
	})

	allowance, err := apiClient.GetTokenAllowance(context.Background(), walletAddr, honeyAddr)
	if err != nil {
		t.Fatalf("GetTokenAllowance: %v", err)
	}
	if allowance.Spender != DefaultRouter {
		t.Fatalf("Spender = %s, want the router", allowance.Spender)
	}
	if allowance.Amount.Int64() != 42 {
		t.Fatalf("Amount = %s", allowance.Amount)
	}
}

func TestFindToken(t *testing.T) {
	apiClient, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tokenListOK))
	})
	ctx := context.Background()

	token, err := apiClient.FindToken(ctx, "honey")
	if err != nil {
		t.Fatalf("FindToken by symbol: %v", err)
	}
	if token.Address != honeyAddr {
		t.Fatalf("wrong token: %+v", token)
	}

	// exact match wins over the partial WBERA match
	token, err = apiClient.FindToken(ctx, "BERA")
	if err != nil {
		t.Fatalf("FindToken exact: %v", err)
	}
	if token.Symbol != "BERA" {
		t.Fatalf("expected exact match, got %s", token.Symbol)
	}

	// partial fallback
	token, err = apiClient.FindToken(ctx, "WBER")
	if err != nil {
		t.Fatalf("FindToken partial: %v", err)
	}
	if token.Symbol != "WBERA" {
		t.Fatalf("expected partial match, got %s", token.Symbol)
	}

	// address lookup is case-insensitive
	token, err = apiClient.FindToken(ctx, "0xfcbd14dc51f0a4d49d5e53c2e0950e0bc26d0dce")
	if err != nil {
		t.Fatalf("FindToken by address: %v", err)
	}
	if token.Symbol != "HONEY" {
		t.Fatalf("wrong token: %+v", token)
	}

	if _, err := apiClient.FindToken(ctx, "DOGE"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
