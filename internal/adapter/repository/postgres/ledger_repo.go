package postgres

import (
	"context"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency counts expenses whose status disagrees with the approval ledger.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (*domain.LedgerReport, error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.LedgerReport{
		Expenses:            result.ExpenseCount,
		Approvals:           result.ApprovalCount,
		DecidedWithoutEntry: result.DecidedWithoutEntry,
		OpenWithEntry:       result.OpenWithEntry,
		StatusMismatch:      result.StatusMismatch,
	}, nil
}
