package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goexpense/internal/adapter/repository/storetest"
	"github.com/iho/goexpense/internal/domain"
	infrasqlite "github.com/iho/goexpense/internal/infrastructure/sqlite"
)

type testRepos struct {
	TxManager *TxManager
	Expenses  *ExpenseRepository
	Approvals *ApprovalRepository
	Users     *UserRepository
	Ledger    *LedgerRepository
	Outbox    *OutboxRepository
}

func openTestDB(t *testing.T) *testRepos {
	t.Helper()

	path := filepath.Join(t.TempDir(), "expenses.db")
	require.NoError(t, infrasqlite.RunMigrations(path))

	db, err := infrasqlite.Open(context.Background(), infrasqlite.Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &testRepos{
		TxManager: NewTxManager(db),
		Expenses:  NewExpenseRepository(db),
		Approvals: NewApprovalRepository(db),
		Users:     NewUserRepository(db),
		Ledger:    NewLedgerRepository(db),
		Outbox:    NewOutboxRepository(db),
	}
}

func TestSQLiteBackend(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Backend {
		b := openTestDB(t)
		return storetest.Backend{
			TxManager: b.TxManager,
			Expenses:  b.Expenses,
			Approvals: b.Approvals,
			Users:     b.Users,
			Ledger:    b.Ledger,
			Outbox:    b.Outbox,
			Retrier:   NewRetrier().WithLogger(zerolog.Nop()),
		}
	})
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	earlier := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Microsecond)

	assert.Less(t, formatTime(earlier), formatTime(later))

	parsed, err := parseTime(formatTime(later))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(later))
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	b := openTestDB(t)
	ctx := context.Background()

	tx, err := b.TxManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx))
}

func TestAppendUnknownExpense(t *testing.T) {
	b := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, b.Users.Create(ctx, &domain.User{
		ID: "mgr-1", Email: "mary@example.com", Name: "Mary", Role: domain.RoleManager, CreatedAt: time.Now(),
	}))

	tx, err := b.TxManager.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	err = b.Approvals.Append(ctx, tx, &domain.Approval{
		ID:         "apr-1",
		ExpenseID:  "missing",
		ApproverID: "mgr-1",
		Decision:   domain.DecisionApproved,
		DecidedAt:  time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
}

func TestRetrierRetriesBusy(t *testing.T) {
	r := NewRetrier().WithLogger(zerolog.Nop())
	r.initialInterval = time.Millisecond
	r.maxInterval = 2 * time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	permanent := errors.New("boom")
	attempts = 0
	err = r.Retry(context.Background(), func() error {
		attempts++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}
