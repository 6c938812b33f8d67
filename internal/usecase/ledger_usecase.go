package usecase

import (
	"context"
	"errors"

	"github.com/iho/goexpense/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when ledger entries disagree with expense statuses.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: approvals do not match expense statuses")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that every decision is reflected in its expense.
// The report is returned alongside ErrInconsistentLedger when the check fails.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, principal domain.Principal) (*domain.LedgerReport, error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}

	report, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, domain.Internal("check ledger", err)
	}

	if !report.Consistent() {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
