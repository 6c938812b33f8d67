package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
)

func newExpenseCmd(opts *options) *cobra.Command {
	expenseCmd := &cobra.Command{
		Use:   "expense",
		Short: "Submit and track your own expenses",
	}

	expenseCmd.AddCommand(
		newExpenseSubmitCmd(opts),
		newExpenseListCmd(opts),
		newExpenseGetCmd(opts),
		newExpenseHistoryCmd(opts),
	)
	return expenseCmd
}

func newExpenseSubmitCmd(opts *options) *cobra.Command {
	var (
		req                     dto.SubmitExpenseRequest
		amount                  string
		description, receiptURL string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an expense for review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Amount = dto.Amount(amount)
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("receipt-url") {
				req.ReceiptURL = &receiptURL
			}

			var resp dto.SubmitExpenseResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/expenses/", req, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", resp.Message, resp.Expense.ID, resp.Expense.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Expense title")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category ("+strings.Join(domain.Categories, ", ")+")")
	cmd.Flags().StringVar(&req.Date, "date", time.Now().Format(domain.DateLayout), "Expense date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().StringVar(&receiptURL, "receipt-url", "", "Optional receipt reference")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newExpenseListCmd(opts *options) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your expenses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ExpenseListResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, withStatus("/api/v1/expenses/my", status), nil, &resp); err != nil {
				return err
			}
			return printExpenses(cmd.OutOrStdout(), resp.Expenses)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, APPROVED, REJECTED)")
	return cmd
}

func newExpenseGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <expense-id>",
		Short: "Show one expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ExpenseEnvelope
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/expenses/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Expense)
		},
	}
}

func newExpenseHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <expense-id>",
		Short: "Show an expense with its decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts, "/api/v1/expenses/"+url.PathEscape(args[0])+"/history")
		},
	}
}

func showHistory(cmd *cobra.Command, opts *options, path string) error {
	var resp dto.HistoryResponse
	if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printExpenses(out, []*dto.ExpenseResponse{resp.Expense}); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return printApprovals(out, resp.Approvals)
}

func withStatus(path, status string) string {
	if status == "" {
		return path
	}
	return path + "?status=" + url.QueryEscape(strings.ToUpper(status))
}
