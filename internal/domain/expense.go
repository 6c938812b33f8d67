package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of an expense date.
const DateLayout = "2006-01-02"

// ExpenseStatus is the lifecycle state of an expense.
type ExpenseStatus string

const (
	ExpenseStatusDraft    ExpenseStatus = "DRAFT"
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
	ExpenseStatusRejected ExpenseStatus = "REJECTED"
)

// ExpenseStatuses lists every status in lifecycle order.
var ExpenseStatuses = []ExpenseStatus{
	ExpenseStatusDraft,
	ExpenseStatusPending,
	ExpenseStatusApproved,
	ExpenseStatusRejected,
}

// IsValid checks if the status is one of the four lifecycle states.
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves this status.
func (s ExpenseStatus) IsTerminal() bool {
	switch s {
	case ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	case ExpenseStatusDraft, ExpenseStatusPending:
		return false
	default:
		return false
	}
}

func (s ExpenseStatus) String() string {
	return string(s)
}

// ParseExpenseStatus parses an exact status value.
func ParseExpenseStatus(s string) (ExpenseStatus, bool) {
	status := ExpenseStatus(s)
	return status, status.IsValid()
}

// StatusFilter is an optional status restriction on list queries.
// The zero value matches every status.
type StatusFilter struct {
	status ExpenseStatus
	set    bool
}

// NoStatusFilter matches every expense.
var NoStatusFilter = StatusFilter{}

// FilterByStatus restricts a listing to one status.
func FilterByStatus(status ExpenseStatus) StatusFilter {
	return StatusFilter{status: status, set: true}
}

// ParseStatusFilter turns a query value into a filter. Empty and unrecognized
// values produce NoStatusFilter: an unknown filter lists everything instead of
// failing the request.
func ParseStatusFilter(raw string) StatusFilter {
	status, ok := ParseExpenseStatus(raw)
	if !ok {
		return NoStatusFilter
	}
	return FilterByStatus(status)
}

// Status returns the filtered status and whether a filter is set.
func (f StatusFilter) Status() (ExpenseStatus, bool) {
	return f.status, f.set
}

// Matches reports whether the filter admits an expense with status s.
func (f StatusFilter) Matches(s ExpenseStatus) bool {
	return !f.set || f.status == s
}

// Expense is a reimbursable expense owned by one employee.
type Expense struct {
	ID          string
	OwnerID     string
	Title       string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description *string
	ReceiptRef  *string
	Status      ExpenseStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by stores that join the user directory.
	OwnerName  string
	OwnerEmail string
}

// DateString returns the expense date in DateLayout.
func (e *Expense) DateString() string {
	return e.Date.Format(DateLayout)
}

// ExpensePatch lists the columns UpdateFields may write. Nil fields are left untouched.
type ExpensePatch struct {
	Title       *string
	Amount      *decimal.Decimal
	Category    *string
	Date        *time.Time
	Description *string
	ReceiptRef  *string
	Status      *ExpenseStatus
}

// IsEmpty reports whether the patch sets no field.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil &&
		p.Description == nil && p.ReceiptRef == nil && p.Status == nil
}

// Apply writes the patch onto e and stamps updatedAt.
func (p ExpensePatch) Apply(e *Expense, updatedAt time.Time) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.ReceiptRef != nil {
		e.ReceiptRef = p.ReceiptRef
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if updatedAt.After(e.UpdatedAt) {
		e.UpdatedAt = updatedAt
	}
}
