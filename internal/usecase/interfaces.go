package usecase

import (
	"context"
	"time"

	"github.com/iho/goexpense/internal/domain"
)

// ExpenseRepository defines data access for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.Expense) error
	GetByID(ctx context.Context, id string) (*domain.Expense, error)
	// GetByIDForUpdate holds the expense exclusively until tx ends.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Expense, error)
	ListByOwner(ctx context.Context, ownerID string, filter domain.StatusFilter) ([]*domain.Expense, error)
	ListByStatus(ctx context.Context, status domain.ExpenseStatus) ([]*domain.Expense, error)
	ListAll(ctx context.Context) ([]*domain.Expense, error)
	UpdateFields(ctx context.Context, tx Transaction, id string, patch domain.ExpensePatch, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// ApprovalRepository defines data access for the append-only approval ledger.
type ApprovalRepository interface {
	Append(ctx context.Context, tx Transaction, approval *domain.Approval) error
	ListByExpense(ctx context.Context, expenseID string) ([]*domain.Approval, error)
	ListByApprover(ctx context.Context, approverID string) ([]*domain.Approval, error)
	// LatestForExpense returns nil, nil when the expense has no decisions.
	LatestForExpense(ctx context.Context, expenseID string) (*domain.Approval, error)
	// Delete is an administrative escape hatch. The workflow never calls it.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines data access for the user directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// LedgerRepository defines ledger-wide checks.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (*domain.LedgerReport, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets key so the request can be retried.
	Release(ctx context.Context, key string) error
}
