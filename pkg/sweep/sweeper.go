package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ooga-booga-go/pkg/client"
	"ooga-booga-go/pkg/history"
	"ooga-booga-go/pkg/types"
)

// DefaultSlippage is applied when Options.Slippage is zero. Sweeps cross
// many thin pools, so a flat 2% keeps small positions fillable.
const DefaultSlippage = 0.02

// Aggregator is the API surface a sweep needs. Implemented by
// client.Client.
type Aggregator interface {
	GetTokenList(ctx context.Context) ([]types.Token, error)
	GetTokenPrices(ctx context.Context) ([]types.TokenPrice, error)
	GetTokenAllowance(ctx context.Context, owner, token string) (*types.Allowance, error)
	ApproveAllowance(ctx context.Context, token string, amount *big.Int) (*types.TransactionReceipt, error)
	QuoteSwap(ctx context.Context, params types.SwapParams) (*types.SwapRoute, error)
	SubmitSwap(ctx context.Context, route *types.SwapRoute) (*types.TransactionReceipt, error)
	Wallet() string
}

// BalanceReader reads on-chain balances. Implemented by chain.Reader.
type BalanceReader interface {
	Balance(ctx context.Context, owner, token string) (*big.Int, error)
	Balances(ctx context.Context, owner string, tokens []string) (map[string]*big.Int, error)
}

// Recorder persists confirmed swaps. Implemented by history.Store.
type Recorder interface {
	Append(wallet string, record history.SwapRecord) (*history.SwapRecord, error)
}

// Options tunes which positions a sweep touches.
type Options struct {
	Exclude     []string // token symbols to leave alone, case-insensitive
	MinValueUSD float64  // positions worth less are skipped, 0 disables
	Slippage    float64  // per-swap tolerance, DefaultSlippage when 0
}

// Outcome classifies what happened to one position during a sweep.
type Outcome string

const (
	Swept   Outcome = "swept"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// TokenResult reports one position's fate.
type TokenResult struct {
	Token   types.Token
	Balance *big.Int
	Outcome Outcome
	Reason  string // set for Skipped and Failed
	TxHash  string // set for Swept
	Output  string // target received in human units, set for Swept
}

// Result summarizes a sweep run.
type Result struct {
	Wallet  string
	Target  types.Token
	Results []TokenResult
	Swept   int
	Skipped int
	Failed  int
}

// Sweeper converts every sellable position in a wallet into one target
// token, approving the router per token as needed.
type Sweeper struct {
	api     Aggregator
	reader  BalanceReader
	records Recorder
	opts    Options
	log     zerolog.Logger
}

// New builds a Sweeper. records may be nil to disable history.
func New(api Aggregator, reader BalanceReader, records Recorder, opts Options, log zerolog.Logger) *Sweeper {
	if opts.Slippage == 0 {
		opts.Slippage = DefaultSlippage
	}
	return &Sweeper{
		api:     api,
		reader:  reader,
		records: records,
		opts:    opts,
		log:     log,
	}
}

// Sweep sells every listed position the wallet holds into target, which
// may be a symbol or an address. Failures on one token never stop the
// rest; a cancelled context returns the partial result alongside the
// context's error.
func (s *Sweeper) Sweep(ctx context.Context, target string) (*Result, error) {
	wallet := s.api.Wallet()
	if wallet == "" {
		return nil, &types.ValidationError{Field: "private_key", Reason: "required for sweeps"}
	}

	g, gctx := errgroup.WithContext(ctx)

	var tokens []types.Token
	g.Go(func() error {
		var err error
		tokens, err = s.api.GetTokenList(gctx)
		return err
	})

	priceByAddr := make(map[string]float64)
	if s.opts.MinValueUSD > 0 {
		g.Go(func() error {
			prices, err := s.api.GetTokenPrices(gctx)
			if err != nil {
				return err
			}
			for _, p := range prices {
				priceByAddr[strings.ToLower(p.Address)] = p.Price
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	targetToken := resolveTarget(tokens, target)
	if targetToken == nil {
		return nil, fmt.Errorf("%w: '%s'", client.ErrTokenNotFound, target)
	}

	candidates := make([]types.Token, 0, len(tokens))
	addresses := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.IsNative() || types.SameAddress(token.Address, targetToken.Address) {
			continue
		}
		candidates = append(candidates, token)
		addresses = append(addresses, token.Address)
	}

	balances, err := s.reader.Balances(ctx, wallet, addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}

	excluded := make(map[string]bool, len(s.opts.Exclude))
	for _, symbol := range s.opts.Exclude {
		excluded[strings.ToUpper(symbol)] = true
	}

	result := &Result{Wallet: wallet, Target: *targetToken}
	s.log.Info().
		Str("wallet", wallet).
		Str("target", targetToken.Symbol).
		Int("tokens", len(candidates)).
		Msg("starting sweep")

	for _, token := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		balance := balances[token.Address]
		if balance == nil || balance.Sign() == 0 {
			continue
		}

		if excluded[strings.ToUpper(token.Symbol)] {
			result.add(TokenResult{Token: token, Balance: balance, Outcome: Skipped, Reason: "excluded"})
			continue
		}
		if s.opts.MinValueUSD > 0 {
			value := usdValue(balance, token.Decimals, priceByAddr[strings.ToLower(token.Address)])
			if value < s.opts.MinValueUSD {
				result.add(TokenResult{
					Token:   token,
					Balance: balance,
					Outcome: Skipped,
					Reason:  fmt.Sprintf("worth $%.2f, below minimum", value),
				})
				continue
			}
		}

		result.add(s.sweepOne(ctx, wallet, token, balance, targetToken))
	}

	s.log.Info().
		Int("swept", result.Swept).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("sweep finished")
	return result, nil
}

// sweepOne sells a single position: top up the router's allowance if it
// does not cover the balance, quote, submit, then measure what arrived.
func (s *Sweeper) sweepOne(ctx context.Context, wallet string, token types.Token, balance *big.Int, target *types.Token) TokenResult {
	res := TokenResult{Token: token, Balance: balance}
	amount := types.FromWei(balance, token.Decimals)

	s.log.Info().
		Str("token", token.Symbol).
		Str("amount", amount).
		Msg("sweeping position")

	allowance, err := s.api.GetTokenAllowance(ctx, wallet, token.Address)
	if err != nil {
		return res.failed(fmt.Sprintf("allowance check: %v", err))
	}
	if !allowance.Covers(balance) {
		if _, err := s.api.ApproveAllowance(ctx, token.Address, balance); err != nil {
			return res.failed(fmt.Sprintf("approval: %v", err))
		}
	}

	before, err := s.reader.Balance(ctx, wallet, target.Address)
	if err != nil {
		return res.failed(fmt.Sprintf("target balance: %v", err))
	}

	route, err := s.api.QuoteSwap(ctx, types.SwapParams{
		TokenIn:  token.Address,
		TokenOut: target.Address,
		Amount:   balance,
		To:       wallet,
		Slippage: s.opts.Slippage,
	})
	if err != nil {
		if errors.Is(err, client.ErrNoRoute) {
			res.Outcome = Skipped
			res.Reason = "no route"
			return res
		}
		return res.failed(fmt.Sprintf("quote: %v", err))
	}

	receipt, err := s.api.SubmitSwap(ctx, route)
	if err != nil {
		return res.failed(fmt.Sprintf("swap: %v", err))
	}

	res.Outcome = Swept
	res.TxHash = receipt.TxHash
	if after, err := s.reader.Balance(ctx, wallet, target.Address); err == nil {
		res.Output = types.FromWei(new(big.Int).Sub(after, before), target.Decimals)
	} else {
		s.log.Debug().Err(err).Msg("could not measure swap output")
	}

	s.record(wallet, token, amount, target, res)
	s.log.Info().
		Str("token", token.Symbol).
		Str("tx_hash", res.TxHash).
		Str("received", res.Output).
		Msg("position swept")
	return res
}

// record appends the swap to the wallet's history. History failures are
// logged, never fatal: the swap already confirmed on chain.
func (s *Sweeper) record(wallet string, token types.Token, amount string, target *types.Token, res TokenResult) {
	if s.records == nil {
		return
	}
	_, err := s.records.Append(wallet, history.SwapRecord{
		TxHash:             res.TxHash,
		TokenInput:         token.Symbol,
		TokenInputAmount:   amount,
		TokenInputAddress:  token.Address,
		TokenOutput:        target.Symbol,
		TokenOutputAmount:  res.Output,
		TokenOutputAddress: target.Address,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("token", token.Symbol).Msg("failed to record swap")
	}
}

func (r *Result) add(res TokenResult) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case Swept:
		r.Swept++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
	}
}

func (r TokenResult) failed(reason string) TokenResult {
	r.Outcome = Failed
	r.Reason = reason
	return r
}

// resolveTarget matches target against the list by address first, then
// by exact symbol. Partial matches are deliberately not accepted here: a
// sweep sells everything, so the destination must be unambiguous.
func resolveTarget(tokens []types.Token, target string) *types.Token {
	if types.ValidAddress(target) {
		for i := range tokens {
			if types.SameAddress(tokens[i].Address, target) {
				return &tokens[i]
			}
		}
		return nil
	}
	symbol := strings.ToUpper(target)
	for i := range tokens {
		if strings.ToUpper(tokens[i].Symbol) == symbol {
			return &tokens[i]
		}
	}
	return nil
}

// usdValue converts a raw balance to an approximate dollar value.
func usdValue(balance *big.Int, decimals uint8, price float64) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	human, _ := new(big.Float).Quo(new(big.Float).SetInt(balance), scale).Float64()
	return human * price
}
