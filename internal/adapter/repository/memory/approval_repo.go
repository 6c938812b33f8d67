package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// ApprovalRepository implements usecase.ApprovalRepository.
type ApprovalRepository struct {
	store *Store
}

// NewApprovalRepository creates a new ApprovalRepository.
func NewApprovalRepository(store *Store) *ApprovalRepository {
	return &ApprovalRepository{store: store}
}

// Append stages a ledger entry. Both the expense and the approver must exist.
func (r *ApprovalRepository) Append(_ context.Context, tx usecase.Transaction, approval *domain.Approval) error {
	r.store.mu.RLock()
	_, expenseExists := r.store.expenses[approval.ExpenseID]
	_, approverExists := r.store.users[approval.ApproverID]
	r.store.mu.RUnlock()

	if !expenseExists {
		return domain.ErrExpenseNotFound
	}
	if !approverExists {
		return domain.ErrUnknownPrincipal
	}

	row := cloneApproval(approval)
	return asTx(tx).stage(func(s *Store) {
		s.approvals = append(s.approvals, row)
	})
}

// ListByExpense returns an expense's decisions, newest first.
func (r *ApprovalRepository) ListByExpense(_ context.Context, expenseID string) ([]*domain.Approval, error) {
	return r.list(func(a *domain.Approval) bool { return a.ExpenseID == expenseID }), nil
}

// ListByApprover returns the decisions made by an approver, newest first.
func (r *ApprovalRepository) ListByApprover(_ context.Context, approverID string) ([]*domain.Approval, error) {
	return r.list(func(a *domain.Approval) bool { return a.ApproverID == approverID }), nil
}

// LatestForExpense returns the most recent decision, or nil when there is none.
func (r *ApprovalRepository) LatestForExpense(ctx context.Context, expenseID string) (*domain.Approval, error) {
	approvals, _ := r.ListByExpense(ctx, expenseID)
	if len(approvals) == 0 {
		return nil, nil
	}
	return approvals[0], nil
}

// Delete removes a single ledger entry.
func (r *ApprovalRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, a := range r.store.approvals {
		if a.ID == id {
			r.store.approvals = append(r.store.approvals[:i], r.store.approvals[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *ApprovalRepository) list(match func(*domain.Approval) bool) []*domain.Approval {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	approvals := make([]*domain.Approval, 0)
	for _, row := range r.store.approvals {
		if !match(row) {
			continue
		}
		a := cloneApproval(row)
		if approver, ok := r.store.users[a.ApproverID]; ok {
			a.ApproverName = approver.Name
			a.ApproverEmail = approver.Email
		}
		if expense, ok := r.store.expenses[a.ExpenseID]; ok {
			a.ExpenseTitle = expense.Title
			a.ExpenseAmount = expense.Amount
			if owner, ok := r.store.users[expense.OwnerID]; ok {
				a.EmployeeName = owner.Name
			}
		}
		approvals = append(approvals, a)
	}

	sort.SliceStable(approvals, func(i, j int) bool {
		if !approvals[i].DecidedAt.Equal(approvals[j].DecidedAt) {
			return approvals[i].DecidedAt.After(approvals[j].DecidedAt)
		}
		return approvals[i].ID > approvals[j].ID
	})

	return approvals
}

func cloneApproval(a *domain.Approval) *domain.Approval {
	c := *a
	c.Remark = cloneString(a.Remark)
	c.ApproverName = ""
	c.ApproverEmail = ""
	c.ExpenseTitle = ""
	c.ExpenseAmount = decimal.Decimal{}
	c.EmployeeName = ""
	return &c
}
