package types

import (
	"errors"
	"math/big"
	"testing"
)

const (
	honeyAddr  = "0xFCBD14DC51f0A4d49d5E53C2E0950e0bC26d0Dce"
	wberaAddr  = "0x6969696969696969696969696969696969696969"
	walletAddr = "0x1111111111111111111111111111111111111111"
)

func validParams() SwapParams {
	return SwapParams{
		TokenIn:  honeyAddr,
		TokenOut: wberaAddr,
		Amount:   big.NewInt(1e18),
		To:       walletAddr,
		Slippage: 0.02,
	}
}

func TestSwapParamsValidate(t *testing.T) {
	if err := validParams().Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SwapParams)
		field  string
	}{
		{"same token", func(p *SwapParams) { p.TokenOut = p.TokenIn }, "tokenOut"},
		{"nil amount", func(p *SwapParams) { p.Amount = nil }, "amount"},
		{"zero amount", func(p *SwapParams) { p.Amount = big.NewInt(0) }, "amount"},
		{"negative amount", func(p *SwapParams) { p.Amount = big.NewInt(-5) }, "amount"},
		{"slippage at one", func(p *SwapParams) { p.Slippage = 1 }, "slippage"},
		{"negative slippage", func(p *SwapParams) { p.Slippage = -0.1 }, "slippage"},
		{"bad tokenIn", func(p *SwapParams) { p.TokenIn = "honey" }, "tokenIn"},
		{"bad recipient", func(p *SwapParams) { p.To = "0x123" }, "to"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestMaxApproval(t *testing.T) {
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if MaxApproval.Cmp(want) != 0 {
		t.Fatalf("MaxApproval = %s, want 2^256-1", MaxApproval)
	}

	a := Allowance{Amount: new(big.Int).Set(MaxApproval)}
	if !a.Unlimited() {
		t.Error("max allowance not reported as unlimited")
	}
	if !a.Covers(big.NewInt(1e18)) {
		t.Error("max allowance should cover any amount")
	}
}

func TestAllowanceCovers(t *testing.T) {
	a := Allowance{Amount: big.NewInt(100)}
	if !a.Covers(big.NewInt(100)) {
		t.Error("equal amount should be covered")
	}
	if a.Covers(big.NewInt(101)) {
		t.Error("larger amount should not be covered")
	}

	empty := Allowance{}
	if empty.Covers(big.NewInt(1)) {
		t.Error("allowance without amount covers nothing")
	}
	if empty.Unlimited() {
		t.Error("allowance without amount is not unlimited")
	}
}

func TestSwapRouteFound(t *testing.T) {
	ok := SwapRoute{Status: RouteFound, Tx: TxPayload{To: wberaAddr, Data: "0xabcdef"}}
	if !ok.Found() {
		t.Error("successful quote with payload should be executable")
	}

	noRoute := SwapRoute{Status: RouteNotFound}
	if noRoute.Found() {
		t.Error("NoRouteFound quote reported executable")
	}

	missingTx := SwapRoute{Status: RouteFound}
	if missingTx.Found() {
		t.Error("quote without a payload reported executable")
	}
}

func TestSwapRouteAmountOut(t *testing.T) {
	r := SwapRoute{AssumedAmountOut: "2500000000000000000"}
	out, err := r.AmountOut()
	if err != nil {
		t.Fatalf("AmountOut: %v", err)
	}
	if out.String() != "2500000000000000000" {
		t.Errorf("AmountOut = %s", out)
	}

	bad := SwapRoute{AssumedAmountOut: "not-a-number"}
	if _, err := bad.AmountOut(); err == nil {
		t.Error("expected error for malformed amount")
	}
}
