package postgres_test

import (
	"testing"

	"github.com/iho/goexpense/internal/adapter/repository/postgres"
	"github.com/iho/goexpense/internal/adapter/repository/storetest"
	"github.com/iho/goexpense/internal/testutil"
)

func TestPostgresBackend(t *testing.T) {
	pool := testutil.StartPostgres(t)

	storetest.Run(t, func(t *testing.T) storetest.Backend {
		testutil.TruncatePostgres(t, pool)

		return storetest.Backend{
			TxManager: postgres.NewTxManager(pool),
			Expenses:  postgres.NewExpenseRepository(pool),
			Approvals: postgres.NewApprovalRepository(pool),
			Users:     postgres.NewUserRepository(pool),
			Ledger:    postgres.NewLedgerRepository(pool),
			Outbox:    postgres.NewOutboxRepository(pool),
			Retrier:   postgres.NewRetrier(),
		}
	})
}
