package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// ExpenseService defines the workflow operations an employee uses.
type ExpenseService interface {
	Submit(ctx context.Context, principal domain.Principal, input usecase.SubmitExpenseInput) (*domain.Expense, error)
	GetExpense(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, error)
	GetHistory(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, []*domain.Approval, error)
	ListOwn(ctx context.Context, principal domain.Principal, statusFilter string) ([]*domain.Expense, error)
}

// ExpenseHandler handles the employee side of the expense API.
type ExpenseHandler struct {
	expenses ExpenseService
	logger   zerolog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenses ExpenseService, logger zerolog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

// Submit creates a pending expense owned by the caller.
func (h *ExpenseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	expense, err := h.expenses.Submit(r.Context(), principal(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SubmitExpenseResponse{
		Message: "Expense submitted successfully",
		Expense: dto.ExpenseFromDomain(expense),
	})
}

// ListMine lists the caller's expenses, optionally filtered by ?status=.
func (h *ExpenseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.ListOwn(r.Context(), principal(r), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseListResponse{Expenses: dto.ExpensesFromDomain(expenses)})
}

// Get returns one expense the caller owns or may review.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenses.GetExpense(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseEnvelope{Expense: dto.ExpenseFromDomain(expense)})
}

// History returns an expense with its decisions, most recent first.
func (h *ExpenseHandler) History(w http.ResponseWriter, r *http.Request) {
	expense, approvals, err := h.expenses.GetHistory(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Expense:   dto.ExpenseFromDomain(expense),
		Approvals: dto.ApprovalsFromDomain(approvals),
	})
}

// Categories lists the advertised expense categories.
func (h *ExpenseHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.CategoriesResponse{Categories: domain.Categories})
}
