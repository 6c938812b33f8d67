package dto

import (
	"time"

	"github.com/iho/goexpense/internal/domain"
)

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	EmployeeEmail string    `json:"employee_email,omitempty"`
	Title         string    `json:"title"`
	Amount        string    `json:"amount"`
	Category      string    `json:"category"`
	Date          string    `json:"date"`
	Description   *string   `json:"description"`
	ReceiptURL    *string   `json:"receipt_url"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExpenseFromDomain converts domain expense to response.
func ExpenseFromDomain(e *domain.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		EmployeeID:    e.OwnerID,
		EmployeeName:  e.OwnerName,
		EmployeeEmail: e.OwnerEmail,
		Title:         e.Title,
		Amount:        e.Amount.String(),
		Category:      e.Category,
		Date:          e.DateString(),
		Description:   e.Description,
		ReceiptURL:    e.ReceiptRef,
		Status:        e.Status.String(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ExpensesFromDomain converts domain expenses to responses.
func ExpensesFromDomain(expenses []*domain.Expense) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = ExpenseFromDomain(e)
	}
	return result
}

// ApprovalResponse represents a ledger entry in API responses.
type ApprovalResponse struct {
	ID           string    `json:"id"`
	ExpenseID    string    `json:"expense_id"`
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name,omitempty"`
	Decision     string    `json:"decision"`
	Remark       *string   `json:"remark"`
	DecidedAt    time.Time `json:"decided_at"`

	ExpenseTitle  string `json:"expense_title,omitempty"`
	ExpenseAmount string `json:"expense_amount,omitempty"`
	EmployeeName  string `json:"employee_name,omitempty"`
}

// ApprovalFromDomain converts a domain approval to response.
func ApprovalFromDomain(a *domain.Approval) *ApprovalResponse {
	resp := &ApprovalResponse{
		ID:           a.ID,
		ExpenseID:    a.ExpenseID,
		ApproverID:   a.ApproverID,
		ApproverName: a.ApproverName,
		Decision:     string(a.Decision),
		Remark:       a.Remark,
		DecidedAt:    a.DecidedAt,
		ExpenseTitle: a.ExpenseTitle,
		EmployeeName: a.EmployeeName,
	}
	if a.ExpenseTitle != "" {
		resp.ExpenseAmount = a.ExpenseAmount.String()
	}
	return resp
}

// ApprovalsFromDomain converts domain approvals to responses.
func ApprovalsFromDomain(approvals []*domain.Approval) []*ApprovalResponse {
	result := make([]*ApprovalResponse, len(approvals))
	for i, a := range approvals {
		result[i] = ApprovalFromDomain(a)
	}
	return result
}

// ExpenseEnvelope wraps a single expense.
type ExpenseEnvelope struct {
	Expense *ExpenseResponse `json:"expense"`
}

// ExpenseListResponse wraps a list of expenses.
type ExpenseListResponse struct {
	Expenses []*ExpenseResponse `json:"expenses"`
}

// SubmitExpenseResponse is returned after a successful submission.
type SubmitExpenseResponse struct {
	Message string           `json:"message"`
	Expense *ExpenseResponse `json:"expense"`
}

// DecisionResponse is returned after a successful decision.
type DecisionResponse struct {
	Message  string            `json:"message"`
	Expense  *ExpenseResponse  `json:"expense"`
	Approval *ApprovalResponse `json:"approval"`
}

// HistoryResponse pairs an expense with its decisions, most recent first.
type HistoryResponse struct {
	Expense   *ExpenseResponse    `json:"expense"`
	Approvals []*ApprovalResponse `json:"approvals"`
}

// LatestDecisionResponse carries the most recent decision, or null.
type LatestDecisionResponse struct {
	Approval *ApprovalResponse `json:"approval"`
}

// ApprovalListResponse wraps a list of ledger entries.
type ApprovalListResponse struct {
	Approvals []*ApprovalResponse `json:"approvals"`
}

// UserResponse represents a directory user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts a domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Users []*UserResponse `json:"users"`
}

// UsersFromDomain converts domain users to a list response.
func UsersFromDomain(users []*domain.User) UserListResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return UserListResponse{Users: result}
}

// CategoriesResponse lists the advertised expense categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// LedgerConsistencyResponse reports the outcome of a ledger check.
type LedgerConsistencyResponse struct {
	Status     string               `json:"status"`
	Consistent bool                 `json:"consistent"`
	Report     *domain.LedgerReport `json:"report,omitempty"`
	Message    string               `json:"message,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
