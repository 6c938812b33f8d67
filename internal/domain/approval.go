package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision is a manager's verdict on a pending expense.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// IsValid checks if the decision is APPROVED or REJECTED.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApproved, DecisionRejected:
		return true
	default:
		return false
	}
}

// ParseDecision parses an exact decision value.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.IsValid() {
		return "", NewValidationError("decision", "decision must be APPROVED or REJECTED")
	}
	return d, nil
}

// Trigger returns the state machine trigger that applies this decision.
func (d Decision) Trigger() Trigger {
	switch d {
	case DecisionApproved:
		return TriggerApprove
	case DecisionRejected:
		return TriggerReject
	default:
		return ""
	}
}

// Status returns the expense status this decision produces.
func (d Decision) Status() ExpenseStatus {
	switch d {
	case DecisionApproved:
		return ExpenseStatusApproved
	case DecisionRejected:
		return ExpenseStatusRejected
	default:
		return ""
	}
}

// Approval is an immutable ledger entry recording one decision on an expense.
type Approval struct {
	ID         string
	ExpenseID  string
	ApproverID string
	Decision   Decision
	Remark     *string
	DecidedAt  time.Time

	// Populated by stores that join the user directory and the expense.
	ApproverName  string
	ApproverEmail string
	ExpenseTitle  string
	ExpenseAmount decimal.Decimal
	EmployeeName  string
}
