package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	store *Store
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(store *Store) *ExpenseRepository {
	return &ExpenseRepository{store: store}
}

// Create stages an insert. The owner must exist in the directory.
func (r *ExpenseRepository) Create(_ context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	r.store.mu.RLock()
	_, ownerExists := r.store.users[expense.OwnerID]
	_, duplicate := r.store.expenses[expense.ID]
	r.store.mu.RUnlock()

	if !ownerExists {
		return domain.ErrUnknownPrincipal
	}
	if duplicate {
		return fmt.Errorf("expense %s already exists", expense.ID)
	}

	row := cloneExpense(expense)
	return asTx(tx).stage(func(s *Store) {
		s.expenses[row.ID] = row
	})
}

// GetByID retrieves an expense with its owner's directory details.
func (r *ExpenseRepository) GetByID(_ context.Context, id string) (*domain.Expense, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	return r.store.expenseView(row), nil
}

// GetByIDForUpdate locks the expense until tx ends.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Expense, error) {
	release, err := r.store.rowLocks.acquire(ctx, "expense:"+id)
	if err != nil {
		return nil, err
	}
	if err := asTx(tx).hold(release); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	return cloneExpense(row), nil
}

// ListByOwner lists an owner's expenses, newest first.
func (r *ExpenseRepository) ListByOwner(_ context.Context, ownerID string, filter domain.StatusFilter) ([]*domain.Expense, error) {
	return r.list(func(e *domain.Expense) bool {
		return e.OwnerID == ownerID && filter.Matches(e.Status)
	}), nil
}

// ListByStatus lists expenses in the given status, newest first.
func (r *ExpenseRepository) ListByStatus(_ context.Context, status domain.ExpenseStatus) ([]*domain.Expense, error) {
	return r.list(func(e *domain.Expense) bool {
		return e.Status == status
	}), nil
}

// ListAll lists every expense, newest first.
func (r *ExpenseRepository) ListAll(_ context.Context) ([]*domain.Expense, error) {
	return r.list(func(*domain.Expense) bool { return true }), nil
}

// UpdateFields stages the non-nil fields of patch.
func (r *ExpenseRepository) UpdateFields(_ context.Context, tx usecase.Transaction, id string, patch domain.ExpensePatch, updatedAt time.Time) error {
	r.store.mu.RLock()
	_, ok := r.store.expenses[id]
	r.store.mu.RUnlock()

	if !ok {
		return domain.ErrExpenseNotFound
	}

	return asTx(tx).stage(func(s *Store) {
		if row, ok := s.expenses[id]; ok {
			patch.Apply(row, updatedAt)
		}
	})
}

// Delete removes an expense together with its ledger entries.
func (r *ExpenseRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.expenses[id]; !ok {
		return domain.ErrExpenseNotFound
	}
	delete(r.store.expenses, id)

	kept := r.store.approvals[:0]
	for _, a := range r.store.approvals {
		if a.ExpenseID != id {
			kept = append(kept, a)
		}
	}
	r.store.approvals = kept

	return nil
}

func (r *ExpenseRepository) list(match func(*domain.Expense) bool) []*domain.Expense {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	expenses := make([]*domain.Expense, 0)
	for _, row := range r.store.expenses {
		if match(row) {
			expenses = append(expenses, r.store.expenseView(row))
		}
	}

	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
		}
		return expenses[i].ID > expenses[j].ID
	})

	return expenses
}

// expenseView copies row and joins the owner's directory entry. Callers hold mu.
func (s *Store) expenseView(row *domain.Expense) *domain.Expense {
	e := cloneExpense(row)
	if owner, ok := s.users[e.OwnerID]; ok {
		e.OwnerName = owner.Name
		e.OwnerEmail = owner.Email
	}
	return e
}

func cloneExpense(e *domain.Expense) *domain.Expense {
	c := *e
	c.Description = cloneString(e.Description)
	c.ReceiptRef = cloneString(e.ReceiptRef)
	c.OwnerName = ""
	c.OwnerEmail = ""
	return &c
}
