package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/pkg/chain"
	"ooga-booga-go/pkg/history"
	"ooga-booga-go/pkg/logging"
	"ooga-booga-go/pkg/sweep"
)

var (
	sweepExclude  []string
	sweepMinValue float64
	sweepSlippage float64
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <target-token>",
	Short: "Swap every token in the wallet into one target token",
	Long: `Sell every tradable position the wallet holds and consolidate into a
single target token. Each position is approved (if needed), quoted, and
swapped one at a time; a failure on one token never stops the rest.

The native balance is left alone so there is always gas to pay with.

Examples:
  ooga-booga sweep HONEY
  ooga-booga sweep HONEY --exclude WBERA,IBGT
  ooga-booga sweep BERA --min-value 5 --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringSliceVar(&sweepExclude, "exclude", nil, "Token symbols to leave untouched")
	sweepCmd.Flags().Float64Var(&sweepMinValue, "min-value", 0, "Skip positions worth less than this many USD")
	sweepCmd.Flags().Float64Var(&sweepSlippage, "slippage", 0, "Slippage tolerance as a fraction (default 0.02)")
	sweepCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}

func runSweep(cmd *cobra.Command, args []string) {
	noConfirm, _ := cmd.Flags().GetBool("yes")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	apiClient, cfg := newAPIClient(true)
	defer apiClient.Close()

	log := logging.New(cfg.LogLevel)
	reader, err := chain.NewReader(cfg.RPCURL, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer reader.Close()

	store, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !noConfirm && !jsonOutput {
		fmt.Printf("\nThis will swap every tradable token in %s into %s.\n",
			color.CyanString(apiClient.Wallet()), color.YellowString(args[0]))
		if !confirm("Proceed with sweep?") {
			fmt.Println("\nSweep cancelled.")
			os.Exit(0)
		}
	}

	sweeper := sweep.New(apiClient, reader, store, sweep.Options{
		Exclude:     sweepExclude,
		MinValueUSD: sweepMinValue,
		Slippage:    sweepSlippage,
	}, log)

	result, err := sweeper.Sweep(context.Background(), args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displaySweepResult(result)
}

func displaySweepResult(result *sweep.Result) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                          SWEEP RESULT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	if len(result.Results) == 0 {
		fmt.Println("  Nothing to sweep: no tradable positions found.")
	}

	for _, res := range result.Results {
		switch res.Outcome {
		case sweep.Swept:
			fmt.Printf("  %s  %-10s received %s %s  %s\n",
				color.GreenString("swept  "),
				res.Token.Symbol,
				res.Output,
				result.Target.Symbol,
				color.HiBlackString(res.TxHash))
		case sweep.Skipped:
			fmt.Printf("  %s  %-10s %s\n",
				color.YellowString("skipped"),
				res.Token.Symbol,
				res.Reason)
		case sweep.Failed:
			fmt.Printf("  %s  %-10s %s\n",
				color.RedString("failed "),
				res.Token.Symbol,
				res.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nSwept %s, skipped %s, failed %s\n\n",
		color.GreenString("%d", result.Swept),
		color.YellowString("%d", result.Skipped),
		color.RedString("%d", result.Failed))
}
