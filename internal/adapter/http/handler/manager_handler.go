package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// ReviewService defines the workflow operations a manager uses.
type ReviewService interface {
	ListPendingForReview(ctx context.Context, principal domain.Principal) ([]*domain.Expense, error)
	ListAll(ctx context.Context, principal domain.Principal, statusFilter string) ([]*domain.Expense, error)
	Decide(ctx context.Context, principal domain.Principal, input usecase.DecideInput) (*domain.Expense, *domain.Approval, error)
	GetHistory(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, []*domain.Approval, error)
	LatestDecision(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Approval, error)
	ListDecisionsByApprover(ctx context.Context, principal domain.Principal) ([]*domain.Approval, error)
}

// ManagerHandler handles the review side of the expense API.
type ManagerHandler struct {
	reviews ReviewService
	logger  zerolog.Logger
}

// NewManagerHandler creates a new ManagerHandler.
func NewManagerHandler(reviews ReviewService, logger zerolog.Logger) *ManagerHandler {
	return &ManagerHandler{reviews: reviews, logger: logger}
}

// Pending lists every expense awaiting a decision.
func (h *ManagerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.reviews.ListPendingForReview(r.Context(), principal(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseListResponse{Expenses: dto.ExpensesFromDomain(expenses)})
}

// List lists all expenses, optionally filtered by ?status=.
func (h *ManagerHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.reviews.ListAll(r.Context(), principal(r), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseListResponse{Expenses: dto.ExpensesFromDomain(expenses)})
}

// Decide approves or rejects a pending expense.
func (h *ManagerHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req dto.DecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	expense, approval, err := h.reviews.Decide(r.Context(), principal(r), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DecisionResponse{
		Message:  "Expense " + strings.ToLower(string(approval.Decision)) + " successfully",
		Expense:  dto.ExpenseFromDomain(expense),
		Approval: dto.ApprovalFromDomain(approval),
	})
}

// History returns an expense with its decisions, most recent first.
func (h *ManagerHandler) History(w http.ResponseWriter, r *http.Request) {
	expense, approvals, err := h.reviews.GetHistory(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Expense:   dto.ExpenseFromDomain(expense),
		Approvals: dto.ApprovalsFromDomain(approvals),
	})
}

// LatestDecision returns the most recent decision on an expense, or null.
func (h *ManagerHandler) LatestDecision(w http.ResponseWriter, r *http.Request) {
	approval, err := h.reviews.LatestDecision(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	resp := dto.LatestDecisionResponse{}
	if approval != nil {
		resp.Approval = dto.ApprovalFromDomain(approval)
	}
	writeJSON(w, http.StatusOK, resp)
}

// MyDecisions lists the decisions the caller made.
func (h *ManagerHandler) MyDecisions(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.reviews.ListDecisionsByApprover(r.Context(), principal(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ApprovalListResponse{Approvals: dto.ApprovalsFromDomain(approvals)})
}
