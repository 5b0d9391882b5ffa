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
)

var sourcesCmd = &cobra.Command{
	Use:     "liquidity-sources",
	Aliases: []string{"sources"},
	Short:   "List the liquidity venues the aggregator routes through",
	Run:     runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	apiClient, _ := newAPIClient(false)
	defer apiClient.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching liquidity sources..."
		s.Start()
	}

	sources, err := apiClient.GetLiquiditySources(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(sources, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	fmt.Println("\n" + strings.Repeat("=", 50))
	color.Green("              LIQUIDITY SOURCES")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
	for _, source := range sources {
		fmt.Printf("  %s\n", color.CyanString(string(source)))
	}
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("\nTotal: %d sources\n\n", len(sources))
}
