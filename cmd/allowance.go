package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ooga-booga-go/pkg/types"
)

var allowanceOwner string

var allowanceCmd = &cobra.Command{
	Use:   "allowance <token>",
	Short: "Show how much of a token the router may spend",
	Long: `Show the aggregation router's current allowance for a token.

The owner defaults to the configured wallet; pass --owner to inspect
any address without a private key.

Examples:
  ooga-booga allowance HONEY
  ooga-booga allowance 0xFCBD14DC51f0A4d49d5E53C2E0950e0bC26d0Dce --owner 0xabc...`,
	Args: cobra.ExactArgs(1),
	Run:  runAllowance,
}

var approveCmd = &cobra.Command{
	Use:   "approve <token> [amount]",
	Short: "Approve the router to spend a token",
	Long: `Grant the aggregation router an allowance for a token and wait for
the approval transaction to confirm.

Without an amount the allowance is unlimited. An amount of 0 revokes it.

Examples:
  ooga-booga approve HONEY
  ooga-booga approve HONEY 250.5
  ooga-booga approve HONEY 0 --yes`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runApprove,
}

func init() {
	rootCmd.AddCommand(allowanceCmd)
	rootCmd.AddCommand(approveCmd)

	allowanceCmd.Flags().StringVar(&allowanceOwner, "owner", "", "Address to check instead of the configured wallet")
	approveCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}

func runAllowance(cmd *cobra.Command, args []string) {
	apiClient, _ := newAPIClient(false)
	defer apiClient.Close()

	ctx := context.Background()
	owner := allowanceOwner
	if owner == "" {
		owner = apiClient.Wallet()
	}
	if owner == "" {
		printError(fmt.Errorf("no owner to check: pass --owner or configure a private key"))
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Checking allowance..."
	s.Start()

	token, err := apiClient.FindToken(ctx, args[0])
	var allowance *types.Allowance
	if err == nil {
		allowance, err = apiClient.GetTokenAllowance(ctx, owner, token.Address)
	}
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      ALLOWANCE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Token:    %s (%s)\n", color.YellowString(token.Symbol), color.HiBlackString(token.Address))
	fmt.Printf("  Owner:    %s\n", owner)
	fmt.Printf("  Spender:  %s\n", allowance.Spender)
	fmt.Printf("  Amount:   %s\n", formatAllowance(allowance, token.Decimals))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func runApprove(cmd *cobra.Command, args []string) {
	noConfirm, _ := cmd.Flags().GetBool("yes")

	apiClient, _ := newAPIClient(true)
	defer apiClient.Close()

	ctx := context.Background()

	token, err := apiClient.FindToken(ctx, args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amount := types.MaxApproval
	display := "unlimited"
	if len(args) == 2 {
		amount, err = types.ToWei(args[1], token.Decimals)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		display = fmt.Sprintf("%s %s", args[1], token.Symbol)
		if amount.Sign() == 0 {
			display = "0 (revoke)"
		}
	}

	fmt.Printf("\nApproving router %s\n", color.HiBlackString(apiClient.Router()))
	fmt.Printf("  Token:   %s\n", color.YellowString(token.Symbol))
	fmt.Printf("  Amount:  %s\n", display)

	if !noConfirm && !confirm("Proceed with approval?") {
		fmt.Println("\nApproval cancelled.")
		os.Exit(0)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Waiting for approval to confirm..."
	s.Start()

	receipt, err := apiClient.ApproveAllowance(ctx, token.Address, amount)
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(color.GreenString("Approval confirmed."))
	displayReceipt(receipt)
}

func formatAllowance(allowance *types.Allowance, decimals uint8) string {
	if allowance.Unlimited() {
		return color.GreenString("unlimited")
	}
	if allowance.Amount.Sign() == 0 {
		return color.RedString("0 (not approved)")
	}
	return types.FromWei(allowance.Amount, decimals)
}
