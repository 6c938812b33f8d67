package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

const approvalSelect = `
	SELECT a.id, a.expense_id, a.approver_id, a.decision, a.remark, a.decided_at, u.name, u.email,
	       e.title, e.amount, o.name
	FROM approvals a
	JOIN users u ON u.id = a.approver_id
	JOIN expenses e ON e.id = a.expense_id
	JOIN users o ON o.id = e.owner_id
`

const approvalOrder = `ORDER BY a.decided_at DESC, a.id DESC`

// ApprovalRepository implements usecase.ApprovalRepository.
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new ApprovalRepository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Append records a decision within a transaction.
func (r *ApprovalRepository) Append(ctx context.Context, tx usecase.Transaction, approval *domain.Approval) error {
	exec := txExecutor(tx)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO approvals (id, expense_id, approver_id, decision, remark, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		approval.ID,
		approval.ExpenseID,
		approval.ApproverID,
		string(approval.Decision),
		nullable(approval.Remark),
		formatTime(approval.DecidedAt),
	)
	if !isForeignKeyViolation(err) {
		return err
	}

	// SQLite does not name the violated constraint.
	var expenseExists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM expenses WHERE id = ?)`, approval.ExpenseID,
	).Scan(&expenseExists); err != nil {
		return err
	}
	if !expenseExists {
		return domain.ErrExpenseNotFound
	}
	return domain.ErrUnknownPrincipal
}

// ListByExpense returns an expense's decisions, newest first.
func (r *ApprovalRepository) ListByExpense(ctx context.Context, expenseID string) ([]*domain.Approval, error) {
	return r.list(ctx, approvalSelect+` WHERE a.expense_id = ? `+approvalOrder, expenseID)
}

// ListByApprover returns the decisions made by an approver, newest first.
func (r *ApprovalRepository) ListByApprover(ctx context.Context, approverID string) ([]*domain.Approval, error) {
	return r.list(ctx, approvalSelect+` WHERE a.approver_id = ? `+approvalOrder, approverID)
}

// LatestForExpense returns the most recent decision, or nil when there is none.
func (r *ApprovalRepository) LatestForExpense(ctx context.Context, expenseID string) (*domain.Approval, error) {
	query := approvalSelect + ` WHERE a.expense_id = ? ` + approvalOrder + ` LIMIT 1`

	approval, err := scanApproval(r.db.QueryRowContext(ctx, query, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// Delete removes a single ledger entry.
func (r *ApprovalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM approvals WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApprovalRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Approval, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	approvals := make([]*domain.Approval, 0)
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, approval)
	}

	return approvals, rows.Err()
}

func scanApproval(row rowScanner) (*domain.Approval, error) {
	var (
		a                           domain.Approval
		decision, decidedAt, amount string
		remark                      sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.ExpenseID,
		&a.ApproverID,
		&decision,
		&remark,
		&decidedAt,
		&a.ApproverName,
		&a.ApproverEmail,
		&a.ExpenseTitle,
		&amount,
		&a.EmployeeName,
	)
	if err != nil {
		return nil, err
	}

	if a.DecidedAt, err = parseTime(decidedAt); err != nil {
		return nil, err
	}
	if a.ExpenseAmount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	a.Decision = domain.Decision(decision)
	a.Remark = stringPtr(remark)

	return &a, nil
}
