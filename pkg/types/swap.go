package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// MaxApproval is the 2^256-1 sentinel routers treat as an unlimited
// allowance.
var MaxApproval = new(big.Int).Set(math.MaxBig256)

// SwapParams carries a caller-constructed swap request.
type SwapParams struct {
	TokenIn  string   // token to sell, NativeAddress for BERA
	TokenOut string   // token to buy
	Amount   *big.Int // sell amount in wei
	To       string   // recipient of the bought tokens
	Slippage float64  // tolerated price deviation, [0,1)
}

// Validate checks the params before any network call is made.
func (p SwapParams) Validate() error {
	if !ValidAddress(p.TokenIn) {
		return &ValidationError{Field: "tokenIn", Reason: "not a hex address"}
	}
	if !ValidAddress(p.TokenOut) {
		return &ValidationError{Field: "tokenOut", Reason: "not a hex address"}
	}
	if SameAddress(p.TokenIn, p.TokenOut) {
		return &ValidationError{Field: "tokenOut", Reason: "tokenIn and tokenOut are the same token"}
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	if !ValidAddress(p.To) {
		return &ValidationError{Field: "to", Reason: "not a hex address"}
	}
	if p.Slippage < 0 || p.Slippage >= 1 {
		return &ValidationError{Field: "slippage", Reason: "must be in [0,1)"}
	}
	return nil
}

// RouteStatus is the aggregator's verdict on a quote request. RoutePartial
// means only part of the requested amount could be routed; the attached
// transaction is still executable.
type RouteStatus string

const (
	RouteFound    RouteStatus = "Success"
	RoutePartial  RouteStatus = "Partial"
	RouteNotFound RouteStatus = "NoRouteFound"
)

// TxPayload is the ready-to-sign transaction attached to a successful
// quote: the router to call, the calldata, and the native value to send.
type TxPayload struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value,omitempty"`
}

// RouteHop is one pool traversal within a swap route.
type RouteHop struct {
	PoolAddress      string  `json:"poolAddress"`
	PoolName         string  `json:"poolName"`
	LiquiditySource  string  `json:"liquiditySource"`
	PoolFee          float64 `json:"poolFee"`
	Share            float64 `json:"share"`
	AssumedAmountIn  string  `json:"assumedAmountIn,omitempty"`
	AssumedAmountOut string  `json:"assumedAmountOut,omitempty"`
}

// SwapRoute is a quote: the route the aggregator found for the requested
// swap plus the transaction that executes it. Amounts are decimal wei
// strings as sent by the API.
type SwapRoute struct {
	Status           RouteStatus `json:"status"`
	TokenFrom        string      `json:"tokenFrom"`
	TokenTo          string      `json:"tokenTo"`
	Price            float64     `json:"price"`
	PriceImpact      float64     `json:"priceImpact"`
	AmountIn         string      `json:"amountIn"`
	AssumedAmountOut string      `json:"assumedAmountOut"`
	Route            []RouteHop  `json:"route"`
	Tx               TxPayload   `json:"tx"`
}

// Found reports whether the aggregator produced an executable route.
func (r *SwapRoute) Found() bool {
	return (r.Status == RouteFound || r.Status == RoutePartial) && r.Tx.To != ""
}

// AmountOut parses the quoted output amount.
func (r *SwapRoute) AmountOut() (*big.Int, error) {
	return ParseWei(r.AssumedAmountOut)
}

// Allowance is the router's current spend permission for one token.
type Allowance struct {
	Owner   string
	Spender string
	Token   string
	Amount  *big.Int
}

// Covers reports whether the allowance already permits spending amount.
func (a *Allowance) Covers(amount *big.Int) bool {
	return a.Amount != nil && amount != nil && a.Amount.Cmp(amount) >= 0
}

// Unlimited reports whether the allowance is the maximum sentinel.
func (a *Allowance) Unlimited() bool {
	return a.Amount != nil && a.Amount.Cmp(MaxApproval) == 0
}
