package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

const expenseColumns = `e.id, e.owner_id, e.title, e.amount, e.category, e.expense_date,
	e.description, e.receipt_ref, e.status, e.created_at, e.updated_at,
	u.name, u.email`

const expenseFrom = `FROM expenses e JOIN users u ON u.id = e.owner_id`

const expenseOrder = `ORDER BY e.created_at DESC, e.id DESC`

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts an expense within a transaction.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, title, amount, category, expense_date,
			description, receipt_ref, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := txExecutor(tx).ExecContext(ctx, query,
		expense.ID,
		expense.OwnerID,
		expense.Title,
		expense.Amount.String(),
		expense.Category,
		expense.DateString(),
		nullable(expense.Description),
		nullable(expense.ReceiptRef),
		string(expense.Status),
		formatTime(expense.CreatedAt),
		formatTime(expense.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrUnknownPrincipal
	}
	return err
}

// GetByID retrieves an expense with its owner's directory details.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDForUpdate reads the expense inside tx. Immediate transactions hold
// the database write lock, so the row stays stable until tx ends.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Expense, error) {
	return r.get(ctx, txExecutor(tx), id)
}

func (r *ExpenseRepository) get(ctx context.Context, exec executor, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` ` + expenseFrom + ` WHERE e.id = ?`

	expense, err := scanExpense(exec.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExpenseNotFound
	}
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListByOwner lists an owner's expenses, newest first.
func (r *ExpenseRepository) ListByOwner(ctx context.Context, ownerID string, filter domain.StatusFilter) ([]*domain.Expense, error) {
	if status, ok := filter.Status(); ok {
		return r.list(ctx, `WHERE e.owner_id = ? AND e.status = ?`, ownerID, string(status))
	}
	return r.list(ctx, `WHERE e.owner_id = ?`, ownerID)
}

// ListByStatus lists expenses in the given status, newest first.
func (r *ExpenseRepository) ListByStatus(ctx context.Context, status domain.ExpenseStatus) ([]*domain.Expense, error) {
	return r.list(ctx, `WHERE e.status = ?`, string(status))
}

// ListAll lists every expense, newest first.
func (r *ExpenseRepository) ListAll(ctx context.Context) ([]*domain.Expense, error) {
	return r.list(ctx, ``)
}

func (r *ExpenseRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` ` + expenseFrom + ` ` + where + ` ` + expenseOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// UpdateFields applies the non-nil fields of patch within a transaction.
func (r *ExpenseRepository) UpdateFields(ctx context.Context, tx usecase.Transaction, id string, patch domain.ExpensePatch, updatedAt time.Time) error {
	query := `
		UPDATE expenses
		SET title        = COALESCE(?, title),
		    amount       = COALESCE(?, amount),
		    category     = COALESCE(?, category),
		    expense_date = COALESCE(?, expense_date),
		    description  = COALESCE(?, description),
		    receipt_ref  = COALESCE(?, receipt_ref),
		    status       = COALESCE(?, status),
		    updated_at   = MAX(updated_at, ?)
		WHERE id = ?
	`

	var amount, date, status any
	if patch.Amount != nil {
		amount = patch.Amount.String()
	}
	if patch.Date != nil {
		date = patch.Date.Format(domain.DateLayout)
	}
	if patch.Status != nil {
		status = string(*patch.Status)
	}

	result, err := txExecutor(tx).ExecContext(ctx, query,
		nullable(patch.Title),
		amount,
		nullable(patch.Category),
		date,
		nullable(patch.Description),
		nullable(patch.ReceiptRef),
		status,
		formatTime(updatedAt),
		id,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// Delete removes an expense and, through the cascade, its ledger entries.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var (
		e                    domain.Expense
		amount, date, status string
		createdAt, updatedAt string
		description, receipt sql.NullString
	)

	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&amount,
		&e.Category,
		&date,
		&description,
		&receipt,
		&status,
		&createdAt,
		&updatedAt,
		&e.OwnerName,
		&e.OwnerEmail,
	)
	if err != nil {
		return nil, err
	}

	if e.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	if e.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	e.Status = domain.ExpenseStatus(status)
	e.Description = stringPtr(description)
	e.ReceiptRef = stringPtr(receipt)

	return &e, nil
}
