package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/pkg/client"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show USD prices for all tradable tokens",
	Long: `Fetch the aggregator's current USD price for every tradable token.

Examples:
  ooga-booga prices
  ooga-booga prices --json`,
	Run: runPrices,
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	apiClient, _ := newAPIClient(false)
	defer apiClient.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching prices..."
		s.Start()
	}

	ctx := context.Background()
	prices, err := apiClient.GetTokenPrices(ctx)
	var symbols map[string]string
	if err == nil && !jsonOutput {
		symbols, err = symbolIndex(ctx, apiClient)
	}
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(prices, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        TOKEN PRICES (USD)")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Price > prices[j].Price
	})

	for _, price := range prices {
		symbol := symbols[strings.ToLower(price.Address)]
		if symbol == "" {
			symbol = price.Address
		}
		fmt.Printf("  %-12s  %s\n",
			color.YellowString(symbol),
			formatUSD(price.Price))
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nTotal: %d prices\n\n", len(prices))
}

// symbolIndex maps lowercase addresses to symbols for display.
func symbolIndex(ctx context.Context, apiClient *client.Client) (map[string]string, error) {
	tokens, err := apiClient.GetTokenList(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(tokens))
	for _, token := range tokens {
		index[strings.ToLower(token.Address)] = token.Symbol
	}
	return index, nil
}

func formatUSD(price float64) string {
	if price >= 1 {
		return fmt.Sprintf("$%.2f", price)
	}
	return fmt.Sprintf("$%.6f", price)
}
