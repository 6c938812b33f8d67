package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// Amount is the raw text of a JSON amount. Clients send either a number or a
// quoted decimal; both keep their exact digits.
type Amount string

// UnmarshalJSON accepts 12.5, "12.50" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return domain.NewValidationError("amount", "amount must be a number")
	}
	*a = Amount(n.String())
	return nil
}

// SubmitExpenseRequest represents a request to submit an expense.
type SubmitExpenseRequest struct {
	Title       string  `json:"title"`
	Amount      Amount  `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description *string `json:"description,omitempty"`
	ReceiptURL  *string `json:"receipt_url,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SubmitExpenseRequest) ToUseCaseInput() usecase.SubmitExpenseInput {
	return usecase.SubmitExpenseInput{
		Title:       r.Title,
		Amount:      string(r.Amount),
		Category:    r.Category,
		Date:        r.Date,
		Description: r.Description,
		ReceiptRef:  r.ReceiptURL,
	}
}

// DecisionRequest represents a manager's decision on an expense.
type DecisionRequest struct {
	Decision string  `json:"decision"`
	Remark   *string `json:"remark,omitempty"`
}

// ToUseCaseInput converts to use case input. The decision value is checked
// by the workflow so the error kind stays consistent across transports.
func (r *DecisionRequest) ToUseCaseInput(expenseID string) usecase.DecideInput {
	return usecase.DecideInput{
		ExpenseID: expenseID,
		Decision:  domain.Decision(r.Decision),
		Remark:    r.Remark,
	}
}

// CreateUserRequest represents a request to add a user to the directory.
type CreateUserRequest struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() (usecase.CreateUserInput, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return usecase.CreateUserInput{}, err
	}
	return usecase.CreateUserInput{
		ID:    r.ID,
		Email: r.Email,
		Name:  r.Name,
		Role:  role,
	}, nil
}
