package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/iho/goexpense/internal/adapter/http/dto"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printExpenses(w io.Writer, expenses []*dto.ExpenseResponse) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, "No expenses found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tAMOUNT\tCATEGORY\tDATE\tEMPLOYEE\tTITLE")
	for _, e := range expenses {
		owner := e.EmployeeName
		if owner == "" {
			owner = e.EmployeeID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Status, e.Amount, e.Category, e.Date, owner, truncate(e.Title, 40))
	}
	return tw.Flush()
}

func printApprovals(w io.Writer, approvals []*dto.ApprovalResponse) error {
	if len(approvals) == 0 {
		_, err := fmt.Fprintln(w, "No decisions recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DECIDED AT\tDECISION\tAPPROVER\tEXPENSE\tEMPLOYEE\tREMARK")
	for _, a := range approvals {
		remark := ""
		if a.Remark != nil {
			remark = truncate(*a.Remark, 40)
		}
		approver := a.ApproverName
		if approver == "" {
			approver = a.ApproverID
		}
		expense := a.ExpenseID
		if a.ExpenseTitle != "" {
			expense = truncate(a.ExpenseTitle, 30) + " (" + a.ExpenseAmount + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.DecidedAt.Format(time.RFC3339), a.Decision, approver, expense, a.EmployeeName, remark)
	}
	return tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
