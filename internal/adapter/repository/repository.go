// Package repository opens the expense store selected by configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/repository/memory"
	"github.com/iho/goexpense/internal/adapter/repository/postgres"
	"github.com/iho/goexpense/internal/adapter/repository/sqlite"
	"github.com/iho/goexpense/internal/infrastructure/config"
	"github.com/iho/goexpense/internal/infrastructure/metrics"
	pginfra "github.com/iho/goexpense/internal/infrastructure/postgres"
	sqliteinfra "github.com/iho/goexpense/internal/infrastructure/sqlite"
	"github.com/iho/goexpense/internal/usecase"
)

// Store bundles the repositories of one storage driver.
type Store struct {
	Driver    string
	TxManager usecase.TransactionManager
	Expenses  usecase.ExpenseRepository
	Approvals usecase.ApprovalRepository
	Users     usecase.UserRepository
	Outbox    usecase.OutboxRepository
	Ledger    usecase.LedgerRepository
	// Retrier is nil for the memory driver, which never reports transient conflicts.
	Retrier usecase.Retrier
	// Ping is nil when there is no connection to check.
	Ping func(ctx context.Context) error

	close func()
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open migrates and connects the store named by cfg.StoreDriver.
// m may be nil.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := pginfra.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, err
		}

		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		pool, err := pginfra.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		retrier := postgres.NewRetrier().WithLogger(log)
		if m != nil {
			retrier = retrier.WithMetrics(m)
		}

		return &Store{
			Driver:    cfg.StoreDriver,
			TxManager: postgres.NewTxManager(pool),
			Expenses:  postgres.NewExpenseRepository(pool),
			Approvals: postgres.NewApprovalRepository(pool),
			Users:     postgres.NewUserRepository(pool),
			Outbox:    postgres.NewOutboxRepository(pool),
			Ledger:    postgres.NewLedgerRepository(pool),
			Retrier:   retrier,
			Ping:      pool.Ping,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		if err := sqliteinfra.RunMigrations(cfg.SQLitePath); err != nil {
			return nil, err
		}

		db, err := sqliteinfra.Open(ctx, sqliteinfra.Config{Path: cfg.SQLitePath, BusyTimeout: cfg.SQLiteBusyTimeout})
		if err != nil {
			return nil, err
		}

		retrier := sqlite.NewRetrier().WithLogger(log)
		if m != nil {
			retrier = retrier.WithMetrics(m)
		}

		return &Store{
			Driver:    cfg.StoreDriver,
			TxManager: sqlite.NewTxManager(db),
			Expenses:  sqlite.NewExpenseRepository(db),
			Approvals: sqlite.NewApprovalRepository(db),
			Users:     sqlite.NewUserRepository(db),
			Outbox:    sqlite.NewOutboxRepository(db),
			Ledger:    sqlite.NewLedgerRepository(db),
			Retrier:   retrier,
			Ping:      db.PingContext,
			close:     func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		mem := memory.New()
		return &Store{
			Driver:    cfg.StoreDriver,
			TxManager: memory.NewTxManager(mem),
			Expenses:  memory.NewExpenseRepository(mem),
			Approvals: memory.NewApprovalRepository(mem),
			Users:     memory.NewUserRepository(mem),
			Outbox:    memory.NewOutboxRepository(mem),
			Ledger:    memory.NewLedgerRepository(mem),
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Migrate applies (up) or rolls back one step of (down) the schema of a
// persistent driver.
func Migrate(cfg *config.Config, up bool) error {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if up {
			return pginfra.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		}
		return pginfra.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
	case config.DriverSQLite:
		if up {
			return sqliteinfra.RunMigrations(cfg.SQLitePath)
		}
		return sqliteinfra.RunMigrationsDown(cfg.SQLitePath)
	}
	return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
}
