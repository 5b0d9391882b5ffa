package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ooga-booga-go/config"
	"ooga-booga-go/pkg/client"
	"ooga-booga-go/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ooga-booga",
	Short: "A CLI for swapping tokens on Berachain via the Ooga Booga aggregator",
	Long: `ooga-booga is a command-line tool for trading on Berachain through the
Ooga Booga DEX aggregator. It finds the best route across the chain's
liquidity venues, signs the swap locally, and waits for confirmation.

Examples:
  ooga-booga swap 1 BERA to HONEY
  ooga-booga swap 100 HONEY to WBERA --slippage 0.01
  ooga-booga list-tokens
  ooga-booga sweep HONEY --exclude WBERA
  ooga-booga status <tx-hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// newAPIClient builds the aggregator client from the loaded configuration.
// Commands that sign pass requireSigner to fail before any network traffic
// instead of at submission time.
func newAPIClient(requireSigner bool) (*client.Client, *config.Config) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if requireSigner {
		if err := cfg.RequireSigner(); err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	clientCfg := client.Config{
		APIKey:        cfg.APIKey,
		PrivateKey:    cfg.PrivateKey,
		RPCURL:        cfg.RPCURL,
		BaseURL:       cfg.APIURL,
		RouterAddress: cfg.RouterAddress,
		Timeout:       cfg.RequestTimeout,
		PollInterval:  cfg.PollInterval,
		PollAttempts:  cfg.PollAttempts,
		RateLimit:     cfg.RateLimit,
		Logger:        logging.New(cfg.LogLevel),
	}

	var apiClient *client.Client
	if cfg.PrivateKey != "" {
		apiClient, err = client.New(clientCfg)
	} else {
		apiClient, err = client.NewWithSigner(clientCfg, nil)
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return apiClient, cfg
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

// confirm asks a yes/no question on stdin, defaulting to no.
func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
