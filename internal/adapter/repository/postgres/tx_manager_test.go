package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/goexpense/internal/domain"
)

func TestTxManagerBeginsReadCommittedReadWrite(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	pool.ExpectCommit()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxManagerBeginErrorIsWrapped(t *testing.T) {
	pool := newMockPool(t)
	mockErr := errors.New("too many connections")
	pool.ExpectBeginTx(expenseTxOptions).WillReturnError(mockErr)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if !errors.Is(err, mockErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
	if tx != nil {
		t.Fatalf("expected no transaction on error")
	}
}

// Decide defers Rollback after committing; pgx reports ErrTxClosed there.
func TestTxRollbackAfterCommitIsHarmless(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBeginTx(expenseTxOptions)
	pool.ExpectCommit()
	pool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback after commit should be a no-op, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxRollbackReportsRealFailures(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBeginTx(expenseTxOptions)
	connErr := errors.New("connection reset")
	pool.ExpectRollback().WillReturnError(connErr)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Rollback(context.Background()); !errors.Is(err, connErr) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestDecisionWritesShareOneTx(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectExec("UPDATE expenses").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec("INSERT INTO approvals").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectCommit()
	pool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	ctx := context.Background()
	approved := domain.ExpenseStatusApproved
	decidedAt := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	if err := NewExpenseRepository(pool).UpdateFields(ctx, tx, "exp-1", domain.ExpensePatch{Status: &approved}, decidedAt); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := NewApprovalRepository(pool).Append(ctx, tx, &domain.Approval{
		ID:         "ap-1",
		ExpenseID:  "exp-1",
		ApproverID: "mgr-1",
		Decision:   domain.DecisionApproved,
		DecidedAt:  decidedAt,
	}); err != nil {
		t.Fatalf("append approval: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("deferred rollback should be a no-op, got %v", err)
	}

	assertExpectations(t, pool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
