package sqlite

import (
	"context"
	"database/sql"

	"github.com/iho/goexpense/internal/domain"
)

const checkLedgerConsistency = `
SELECT
    (SELECT COUNT(*) FROM expenses),
    (SELECT COUNT(*) FROM approvals),
    (SELECT COUNT(*) FROM expenses e
        WHERE e.status IN ('APPROVED', 'REJECTED')
          AND NOT EXISTS (SELECT 1 FROM approvals a WHERE a.expense_id = e.id)),
    (SELECT COUNT(*) FROM expenses e
        WHERE e.status IN ('DRAFT', 'PENDING')
          AND EXISTS (SELECT 1 FROM approvals a WHERE a.expense_id = e.id)),
    (SELECT COUNT(*) FROM expenses e
        WHERE e.status IN ('APPROVED', 'REJECTED')
          AND (SELECT a.decision FROM approvals a
               WHERE a.expense_id = e.id
               ORDER BY a.decided_at DESC, a.id DESC
               LIMIT 1) <> e.status)
`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency counts expenses whose status disagrees with the approval ledger.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (*domain.LedgerReport, error) {
	var report domain.LedgerReport

	err := r.db.QueryRowContext(ctx, checkLedgerConsistency).Scan(
		&report.Expenses,
		&report.Approvals,
		&report.DecidedWithoutEntry,
		&report.OpenWithEntry,
		&report.StatusMismatch,
	)
	if err != nil {
		return nil, err
	}

	return &report, nil
}
