package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/config"
	"ooga-booga-go/pkg/chain"
	"ooga-booga-go/pkg/history"
)

var historyWallet string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the wallet's recorded swaps",
	Long: `List the swaps this tool has confirmed for a wallet, newest last.

The wallet defaults to the configured private key's address; pass
--wallet to read another wallet's records.

Examples:
  ooga-booga history
  ooga-booga history --wallet 0xabc...`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "Wallet address to show records for")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wallet := historyWallet
	if wallet == "" && cfg.PrivateKey != "" {
		wallet, err = chain.AddressFromKey(cfg.PrivateKey)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}
	if wallet == "" {
		printError(fmt.Errorf("no wallet to show: pass --wallet or configure a private key"))
		os.Exit(1)
	}

	store, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := store.List(wallet)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Printf("\nNo recorded swaps for %s.\n\n", wallet)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 100))
	color.Green("                                   SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 100))
	fmt.Printf("\n  Wallet: %s\n\n", color.CyanString(wallet))

	for _, record := range records {
		fmt.Printf("  %s  %s %s -> %s %s\n",
			record.Timestamp.Local().Format("2006-01-02 15:04:05"),
			record.TokenInputAmount,
			color.YellowString(record.TokenInput),
			record.TokenOutputAmount,
			color.YellowString(record.TokenOutput))
		fmt.Printf("    %s\n", color.HiBlackString(record.TxHash))
	}

	fmt.Println("\n" + strings.Repeat("=", 100))
	fmt.Printf("\nTotal: %d swaps\n\n", len(records))
}
