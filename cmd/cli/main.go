package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const tokenEnv = "GOEXPENSE_TOKEN"

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "goexpense-cli",
		Short: "GoExpense CLI tool",
		Long: `A command line interface for the GoExpense API.

API commands talk to a running server and authenticate with --token or $` + tokenEnv + `.
The user, token and migrate commands work directly on the configured store
and read the same environment variables as the server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoExpense API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(tokenEnv), "Bearer token for API commands")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newExpenseCmd(opts),
		newReviewCmd(opts),
		newLedgerCmd(opts),
		newUserCmd(),
		newTokenCmd(),
		newMigrateCmd(),
	)

	return rootCmd
}
