package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
)

func newReviewCmd(opts *options) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Manager review operations",
	}

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List expenses awaiting a decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ExpenseListResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/manager/expenses/pending", nil, &resp); err != nil {
				return err
			}
			return printExpenses(cmd.OutOrStdout(), resp.Expenses)
		},
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every expense",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ExpenseListResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, withStatus("/api/v1/manager/expenses/", status), nil, &resp); err != nil {
				return err
			}
			return printExpenses(cmd.OutOrStdout(), resp.Expenses)
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, APPROVED, REJECTED)")

	historyCmd := &cobra.Command{
		Use:   "history <expense-id>",
		Short: "Show any expense with its decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts, "/api/v1/manager/expenses/"+url.PathEscape(args[0])+"/history")
		},
	}

	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "List the decisions you made",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ApprovalListResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/manager/approvals", nil, &resp); err != nil {
				return err
			}
			return printApprovals(cmd.OutOrStdout(), resp.Approvals)
		},
	}

	reviewCmd.AddCommand(pendingCmd, listCmd, historyCmd, decisionsCmd, newDecideCmd(opts))
	return reviewCmd
}

func newDecideCmd(opts *options) *cobra.Command {
	var decision, remark string

	cmd := &cobra.Command{
		Use:   "decide <expense-id>",
		Short: "Approve or reject a pending expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDecisionFlag(decision)
			if err != nil {
				return err
			}

			req := dto.DecisionRequest{Decision: string(d)}
			if cmd.Flags().Changed("remark") {
				req.Remark = &remark
			}

			var resp dto.DecisionResponse
			path := "/api/v1/manager/expenses/" + url.PathEscape(args[0]) + "/decision"
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, req, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s is now %s\n", resp.Message, resp.Expense.ID, resp.Expense.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "approve or reject")
	cmd.Flags().StringVar(&remark, "remark", "", "Optional remark stored with the decision")
	_ = cmd.MarkFlagRequired("decision")

	return cmd
}

func parseDecisionFlag(s string) (domain.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return domain.DecisionApproved, nil
	case "reject", "rejected":
		return domain.DecisionRejected, nil
	}
	return "", fmt.Errorf("invalid decision %q: want approve or reject", s)
}
