package memory

import (
	"context"

	"github.com/iho/goexpense/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency counts expenses whose status disagrees with the approval ledger.
func (r *LedgerRepository) CheckConsistency(_ context.Context) (*domain.LedgerReport, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	latest := make(map[string]*domain.Approval, len(r.store.approvals))
	for _, a := range r.store.approvals {
		cur, ok := latest[a.ExpenseID]
		if !ok || a.DecidedAt.After(cur.DecidedAt) || (a.DecidedAt.Equal(cur.DecidedAt) && a.ID > cur.ID) {
			latest[a.ExpenseID] = a
		}
	}

	report := &domain.LedgerReport{
		Expenses:  int64(len(r.store.expenses)),
		Approvals: int64(len(r.store.approvals)),
	}

	for id, e := range r.store.expenses {
		a, hasEntry := latest[id]
		switch {
		case e.Status.IsTerminal() && !hasEntry:
			report.DecidedWithoutEntry++
		case !e.Status.IsTerminal() && hasEntry:
			report.OpenWithEntry++
		case hasEntry && a.Decision.Status() != e.Status:
			report.StatusMismatch++
		}
	}

	return report, nil
}
