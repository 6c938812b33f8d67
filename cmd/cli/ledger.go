package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/iho/goexpense/internal/adapter/http/dto"
)

func newLedgerCmd(opts *options) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return checkConsistency(cmd, opts)
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)
	return ledgerCmd
}

func checkConsistency(cmd *cobra.Command, opts *options) error {
	status, body, err := newAPIClient(opts).send(cmd.Context(), http.MethodGet, "/api/v1/manager/ledger/consistency", nil)
	if err != nil {
		return err
	}

	// 409 carries the report of an inconsistent ledger.
	if status != http.StatusOK && status != http.StatusConflict {
		return &apiError{Status: status, Message: errorMessage(body)}
	}

	var result dto.LedgerConsistencyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	if result.Consistent {
		fmt.Fprintln(out, "Consistency check PASSED")
	} else {
		fmt.Fprintln(out, "Consistency check FAILED")
	}
	fmt.Fprintf(out, "Status: %s\n", result.Status)
	if result.Report != nil {
		if err := printJSON(out, result.Report); err != nil {
			return err
		}
	}

	if !result.Consistent {
		return fmt.Errorf("ledger is inconsistent")
	}
	return nil
}
