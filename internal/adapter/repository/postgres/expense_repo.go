package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/postgres/generated"
	"github.com/iho/goexpense/internal/usecase"
)

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	queries *generated.Queries
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db generated.DBTX) *ExpenseRepository {
	return &ExpenseRepository{
		queries: generated.New(db),
	}
}

// Create inserts an expense within a transaction.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateExpense(ctx, generated.CreateExpenseParams{
		ID:          expense.ID,
		OwnerID:     expense.OwnerID,
		Title:       expense.Title,
		Amount:      decimalToPgNumeric(expense.Amount),
		Category:    expense.Category,
		ExpenseDate: dateToPgDate(expense.Date),
		Description: stringPtrToPgText(expense.Description),
		ReceiptRef:  stringPtrToPgText(expense.ReceiptRef),
		Status:      string(expense.Status),
		CreatedAt:   timeToPgTimestamptz(expense.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(expense.UpdatedAt),
	})

	return mapPgError(err)
}

// GetByID retrieves an expense with its owner's directory details.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	row, err := r.queries.GetExpenseByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}

	return expenseDetailToDomain(row), nil
}

// GetByIDForUpdate locks the expense row until the transaction ends.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Expense, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetExpenseByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}

	return expenseToDomain(row), nil
}

// ListByOwner lists an owner's expenses, newest first.
func (r *ExpenseRepository) ListByOwner(ctx context.Context, ownerID string, filter domain.StatusFilter) ([]*domain.Expense, error) {
	var (
		rows []generated.ExpenseDetail
		err  error
	)

	if status, ok := filter.Status(); ok {
		rows, err = r.queries.ListExpensesByOwnerAndStatus(ctx, generated.ListExpensesByOwnerAndStatusParams{
			OwnerID: ownerID,
			Status:  string(status),
		})
	} else {
		rows, err = r.queries.ListExpensesByOwner(ctx, ownerID)
	}
	if err != nil {
		return nil, err
	}

	return expenseDetailsToDomain(rows), nil
}

// ListByStatus lists expenses in the given status, newest first.
func (r *ExpenseRepository) ListByStatus(ctx context.Context, status domain.ExpenseStatus) ([]*domain.Expense, error) {
	rows, err := r.queries.ListExpensesByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}

	return expenseDetailsToDomain(rows), nil
}

// ListAll lists every expense, newest first.
func (r *ExpenseRepository) ListAll(ctx context.Context) ([]*domain.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}

	return expenseDetailsToDomain(rows), nil
}

// UpdateFields applies the non-nil fields of patch within a transaction.
func (r *ExpenseRepository) UpdateFields(ctx context.Context, tx usecase.Transaction, id string, patch domain.ExpensePatch, updatedAt time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	params := generated.UpdateExpenseFieldsParams{
		Title:       stringPtrToPgText(patch.Title),
		Category:    stringPtrToPgText(patch.Category),
		Description: stringPtrToPgText(patch.Description),
		ReceiptRef:  stringPtrToPgText(patch.ReceiptRef),
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
		ID:          id,
	}
	if patch.Amount != nil {
		params.Amount = decimalToPgNumeric(*patch.Amount)
	}
	if patch.Date != nil {
		params.ExpenseDate = dateToPgDate(*patch.Date)
	}
	if patch.Status != nil {
		params.Status = pgtype.Text{String: string(*patch.Status), Valid: true}
	}

	n, err := queries.UpdateExpenseFields(ctx, params)
	if err != nil {
		return mapPgError(err)
	}
	if n == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

// Delete removes an expense and, through the cascade, its ledger entries.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func expenseToDomain(row generated.Expense) *domain.Expense {
	return &domain.Expense{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Amount:      pgNumericToDecimal(row.Amount),
		Category:    row.Category,
		Date:        pgDateToTime(row.ExpenseDate),
		Description: pgTextToStringPtr(row.Description),
		ReceiptRef:  pgTextToStringPtr(row.ReceiptRef),
		Status:      domain.ExpenseStatus(row.Status),
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:   pgTimestamptzToTime(row.UpdatedAt),
	}
}

func expenseDetailToDomain(row generated.ExpenseDetail) *domain.Expense {
	e := expenseToDomain(generated.Expense{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Amount:      row.Amount,
		Category:    row.Category,
		ExpenseDate: row.ExpenseDate,
		Description: row.Description,
		ReceiptRef:  row.ReceiptRef,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	})
	e.OwnerName = row.OwnerName
	e.OwnerEmail = row.OwnerEmail
	return e
}

func expenseDetailsToDomain(rows []generated.ExpenseDetail) []*domain.Expense {
	expenses := make([]*domain.Expense, 0, len(rows))
	for _, row := range rows {
		expenses = append(expenses, expenseDetailToDomain(row))
	}
	return expenses
}
