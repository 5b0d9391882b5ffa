package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/pkg/chain"
	"ooga-booga-go/pkg/client"
	"ooga-booga-go/pkg/history"
	"ooga-booga-go/pkg/logging"
	"ooga-booga-go/pkg/parser"
	"ooga-booga-go/pkg/types"
)

var (
	swapRecipient string
	swapSlippage  float64
	quoteOnly     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens through the best route on Berachain",
	Long: `Swap tokens on Berachain through the Ooga Booga aggregator.

The aggregator quotes the best route across all liquidity venues; the
swap is signed locally and submitted to the chain, then the command
waits for the transaction to confirm.

Examples:
  # Simple swap, tokens by symbol
  ooga-booga swap 1 BERA to HONEY

  # Tighter slippage, skip confirmation
  ooga-booga swap 100 HONEY to WBERA --slippage 0.005 --yes

  # Send the output somewhere else
  ooga-booga swap 5 HONEY to BERA --to 0xabc...

  # Just show the route
  ooga-booga swap 1 BERA to HONEY --quote-only`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&swapRecipient, "to", "", "Recipient address (defaults to the wallet)")
	swapCmd.Flags().Float64Var(&swapSlippage, "slippage", 0.02, "Slippage tolerance as a fraction")
	swapCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompts")
	swapCmd.Flags().BoolVar(&quoteOnly, "quote-only", false, "Fetch and display the route without swapping")
}

func runSwap(cmd *cobra.Command, args []string) {
	noConfirm, _ := cmd.Flags().GetBool("yes")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient, cfg := newAPIClient(!quoteOnly)
	defer apiClient.Close()

	ctx := context.Background()

	recipient := swapRecipient
	if recipient == "" {
		recipient = apiClient.Wallet()
	}
	if recipient == "" {
		printError(fmt.Errorf("no recipient: pass --to or configure a private key"))
		os.Exit(1)
	}

	slippage := cfg.Slippage
	if cmd.Flags().Changed("slippage") {
		slippage = swapSlippage
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	source, dest, amountWei, err := resolvePair(ctx, apiClient, swapReq)
	var route *types.SwapRoute
	if err == nil {
		route, err = apiClient.QuoteSwap(ctx, types.SwapParams{
			TokenIn:  source.Address,
			TokenOut: dest.Address,
			Amount:   amountWei,
			To:       recipient,
			Slippage: slippage,
		})
	}
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		// In JSON mode only the final document is printed; for a
		// quote-only run that document is the route itself.
		if quoteOnly {
			jsonData, _ := json.MarshalIndent(route, "", "  ")
			fmt.Println(string(jsonData))
			return
		}
	} else {
		displayRoute(route, swapReq.Amount, source, dest)
		if quoteOnly {
			return
		}
	}

	if !noConfirm && !jsonOutput {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	if err := ensureAllowance(ctx, apiClient, source, amountWei, noConfirm, jsonOutput); err != nil {
		printError(err)
		os.Exit(1)
	}

	reader, readerErr := chain.NewReader(cfg.RPCURL, logging.New(cfg.LogLevel))
	var before *big.Int
	if readerErr == nil {
		defer reader.Close()
		before, _ = reader.Balance(ctx, recipient, dest.Address)
	}

	if !jsonOutput {
		s.Suffix = " Submitting swap..."
		s.Start()
	}
	receipt, err := apiClient.SubmitSwap(ctx, route)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	received := quotedOutput(route, dest)
	if readerErr == nil && before != nil {
		if after, balErr := reader.Balance(ctx, recipient, dest.Address); balErr == nil {
			received = types.FromWei(new(big.Int).Sub(after, before), dest.Decimals)
		}
	}

	recordSwap(cfg.HistoryDir, apiClient.Wallet(), receipt, swapReq, source, dest, received)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(color.GreenString("Swap confirmed! Received %s %s.", received, dest.Symbol))
	displayReceipt(receipt)
	fmt.Println("You can re-check the transaction later with:")
	color.Cyan("  ooga-booga status %s\n", receipt.TxHash)
}

// resolvePair resolves both tokens against the aggregator's list and
// converts the human amount into base units of the source token.
func resolvePair(ctx context.Context, apiClient *client.Client, swapReq *parser.SwapCommand) (*types.Token, *types.Token, *big.Int, error) {
	source, err := apiClient.FindToken(ctx, swapReq.SourceToken)
	if err != nil {
		return nil, nil, nil, err
	}
	dest, err := apiClient.FindToken(ctx, swapReq.DestToken)
	if err != nil {
		return nil, nil, nil, err
	}
	amountWei, err := types.ToWei(swapReq.Amount, source.Decimals)
	if err != nil {
		return nil, nil, nil, err
	}
	return source, dest, amountWei, nil
}

// ensureAllowance tops the router's allowance up to the swap amount when
// it falls short. Native swaps need no approval.
func ensureAllowance(ctx context.Context, apiClient *client.Client, source *types.Token, amount *big.Int, noConfirm, jsonOutput bool) error {
	if source.IsNative() {
		return nil
	}

	allowance, err := apiClient.GetTokenAllowance(ctx, apiClient.Wallet(), source.Address)
	if err != nil {
		return err
	}
	if allowance.Covers(amount) {
		return nil
	}

	if !noConfirm && !jsonOutput {
		if !confirm(fmt.Sprintf("The router is not approved to spend your %s. Approve now?", source.Symbol)) {
			return fmt.Errorf("swap cancelled: router not approved for %s", source.Symbol)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Waiting for approval to confirm..."
		s.Start()
	}
	_, err = apiClient.ApproveAllowance(ctx, source.Address, amount)
	if !jsonOutput {
		s.Stop()
	}
	return err
}

// quotedOutput falls back to the route's promised output when the actual
// balance delta cannot be measured.
func quotedOutput(route *types.SwapRoute, dest *types.Token) string {
	out, err := route.AmountOut()
	if err != nil {
		return route.AssumedAmountOut
	}
	return types.FromWei(out, dest.Decimals)
}

func displayRoute(route *types.SwapRoute, amount string, source, dest *types.Token) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:          %s %s\n", amount, color.YellowString(source.Symbol))
	fmt.Printf("  To:            ~%s %s\n", quotedOutput(route, dest), color.YellowString(dest.Symbol))
	fmt.Printf("  Price:         %.6f %s per %s\n", route.Price, dest.Symbol, source.Symbol)
	fmt.Printf("  Price Impact:  %s\n", formatImpact(route.PriceImpact))

	if len(route.Route) > 0 {
		fmt.Println("  Route:")
		for _, hop := range route.Route {
			fmt.Printf("    %5.1f%%  %-20s %s\n",
				hop.Share*100,
				hop.PoolName,
				color.HiBlackString(hop.LiquiditySource))
		}
	}

	if route.Status == types.RoutePartial {
		color.Yellow("\n  Note: only part of the amount can be filled at this size.")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func formatImpact(impact float64) string {
	formatted := fmt.Sprintf("%.2f%%", impact*100)
	if impact >= 0.05 {
		return color.RedString(formatted)
	}
	if impact >= 0.01 {
		return color.YellowString(formatted)
	}
	return formatted
}

func displayReceipt(receipt *types.TransactionReceipt) {
	fmt.Printf("  Tx Hash:   %s\n", color.CyanString(receipt.TxHash))
	fmt.Printf("  Status:    %s\n", coloredTxStatus(receipt.Status))
	fmt.Printf("  Block:     %d\n", receipt.BlockNumber)
	fmt.Printf("  Gas Used:  %d\n\n", receipt.GasUsed)
}

func coloredTxStatus(status types.TxStatus) string {
	switch status {
	case types.TxConfirmed:
		return color.GreenString(string(status))
	case types.TxPending:
		return color.YellowString(string(status))
	case types.TxFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}

// recordSwap appends the confirmed swap to the wallet's history file.
func recordSwap(dir, wallet string, receipt *types.TransactionReceipt, swapReq *parser.SwapCommand, source, dest *types.Token, received string) {
	if wallet == "" {
		return
	}
	store, err := history.NewStore(dir)
	if err != nil {
		return
	}
	_, _ = store.Append(wallet, history.SwapRecord{
		TxHash:             receipt.TxHash,
		TokenInput:         source.Symbol,
		TokenInputAmount:   swapReq.Amount,
		TokenInputAddress:  source.Address,
		TokenOutput:        dest.Symbol,
		TokenOutputAmount:  received,
		TokenOutputAddress: dest.Address,
	})
}
