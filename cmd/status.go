package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/config"
	"ooga-booga-go/pkg/chain"
	"ooga-booga-go/pkg/logging"
	"ooga-booga-go/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check a swap transaction on chain",
	Long: `Look up a transaction receipt on Berachain by hash.

Examples:
  ooga-booga status 0x1234...abcd
  ooga-booga status 0x1234...abcd --watch
  ooga-booga status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch until the transaction leaves the pending state")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reader, err := chain.NewReader(cfg.RPCURL, logging.New(cfg.LogLevel))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer reader.Close()

	if watchStatus {
		watchReceipt(reader, txHash, jsonOutput)
	} else {
		checkReceipt(reader, txHash, jsonOutput)
	}
}

func checkReceipt(reader *chain.Reader, txHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction..."
		s.Start()
	}

	receipt, err := reader.Receipt(context.Background(), txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTxStatus(receipt)
	}
}

func watchReceipt(reader *chain.Reader, txHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := reader.Receipt(context.Background(), txHash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayTxStatus(receipt)
			if receipt.Status != types.TxPending {
				return
			}
		}
		<-ticker.C
	}
}

func displayTxStatus(receipt *types.TransactionReceipt) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()

	if receipt.Status == types.TxPending {
		fmt.Printf("  Tx Hash:   %s\n", color.CyanString(receipt.TxHash))
		fmt.Printf("  Status:    %s\n\n", coloredTxStatus(receipt.Status))
		fmt.Println("  The transaction has not been mined yet.")
	} else {
		displayReceipt(receipt)
	}

	fmt.Println(strings.Repeat("=", 70) + "\n")
}
