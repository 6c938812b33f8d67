package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/postgres/generated"
	"github.com/iho/goexpense/internal/usecase"
)

// ApprovalRepository implements usecase.ApprovalRepository.
type ApprovalRepository struct {
	queries *generated.Queries
}

// NewApprovalRepository creates a new ApprovalRepository.
func NewApprovalRepository(db generated.DBTX) *ApprovalRepository {
	return &ApprovalRepository{
		queries: generated.New(db),
	}
}

// Append records a decision within a transaction.
func (r *ApprovalRepository) Append(ctx context.Context, tx usecase.Transaction, approval *domain.Approval) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateApproval(ctx, generated.CreateApprovalParams{
		ID:         approval.ID,
		ExpenseID:  approval.ExpenseID,
		ApproverID: approval.ApproverID,
		Decision:   string(approval.Decision),
		Remark:     stringPtrToPgText(approval.Remark),
		DecidedAt:  timeToPgTimestamptz(approval.DecidedAt),
	})

	return mapPgError(err)
}

// ListByExpense returns an expense's decisions, newest first.
func (r *ApprovalRepository) ListByExpense(ctx context.Context, expenseID string) ([]*domain.Approval, error) {
	rows, err := r.queries.ListApprovalsByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	return approvalDetailsToDomain(rows), nil
}

// ListByApprover returns the decisions made by an approver, newest first.
func (r *ApprovalRepository) ListByApprover(ctx context.Context, approverID string) ([]*domain.Approval, error) {
	rows, err := r.queries.ListApprovalsByApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	return approvalDetailsToDomain(rows), nil
}

// LatestForExpense returns the most recent decision, or nil when there is none.
func (r *ApprovalRepository) LatestForExpense(ctx context.Context, expenseID string) (*domain.Approval, error) {
	row, err := r.queries.GetLatestApprovalForExpense(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return approvalDetailToDomain(row), nil
}

// Delete removes a single ledger entry.
func (r *ApprovalRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteApproval(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func approvalDetailToDomain(row generated.ApprovalDetail) *domain.Approval {
	return &domain.Approval{
		ID:            row.ID,
		ExpenseID:     row.ExpenseID,
		ApproverID:    row.ApproverID,
		Decision:      domain.Decision(row.Decision),
		Remark:        pgTextToStringPtr(row.Remark),
		DecidedAt:     pgTimestamptzToTime(row.DecidedAt),
		ApproverName:  row.ApproverName,
		ApproverEmail: row.ApproverEmail,
		ExpenseTitle:  row.ExpenseTitle,
		ExpenseAmount: pgNumericToDecimal(row.ExpenseAmount),
		EmployeeName:  row.EmployeeName,
	}
}

func approvalDetailsToDomain(rows []generated.ApprovalDetail) []*domain.Approval {
	approvals := make([]*domain.Approval, 0, len(rows))
	for _, row := range rows {
		approvals = append(approvals, approvalDetailToDomain(row))
	}
	return approvals
}
