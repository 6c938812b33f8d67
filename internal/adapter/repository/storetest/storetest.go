// Package storetest is a conformance suite that every storage backend runs
// against the expense workflow.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/idgen"
	"github.com/iho/goexpense/internal/usecase"
)

// Backend bundles the repositories of one storage implementation.
// Outbox and Retrier are optional.
type Backend struct {
	TxManager usecase.TransactionManager
	Expenses  usecase.ExpenseRepository
	Approvals usecase.ApprovalRepository
	Users     usecase.UserRepository
	Ledger    usecase.LedgerRepository
	Outbox    usecase.OutboxRepository
	Retrier   usecase.Retrier
}

// Factory returns a backend over an empty store.
type Factory func(t *testing.T) Backend

// fixture is a workflow wired to a backend with a seeded directory.
type fixture struct {
	backend  Backend
	workflow *usecase.ExpenseWorkflow
	ledger   *usecase.LedgerUseCase
	users    *usecase.UserUseCase

	jane domain.Principal
	john domain.Principal
	mary domain.Principal
}

// stepClock advances one second per reading so creation order is unambiguous.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newFixture(t *testing.T, newBackend Factory) *fixture {
	t.Helper()

	b := newBackend(t)
	gen := idgen.NewULID()
	clock := &stepClock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}

	wf := usecase.NewExpenseWorkflow(b.TxManager, b.Expenses, b.Approvals, b.Outbox, gen).
		WithClock(clock.Now)
	if b.Retrier != nil {
		wf = wf.WithRetrier(b.Retrier)
	}

	f := &fixture{
		backend:  b,
		workflow: wf,
		ledger:   usecase.NewLedgerUseCase(b.Ledger),
		users:    usecase.NewUserUseCase(b.Users, gen),
	}

	f.jane = f.seedUser(t, "jane@example.com", "Jane Employee", domain.RoleEmployee)
	f.john = f.seedUser(t, "john@example.com", "John Employee", domain.RoleEmployee)
	f.mary = f.seedUser(t, "mary@example.com", "Mary Manager", domain.RoleManager)

	return f
}

func (f *fixture) seedUser(t *testing.T, email, name string, role domain.Role) domain.Principal {
	t.Helper()

	user, err := f.users.CreateUser(context.Background(), usecase.CreateUserInput{
		Email: email,
		Name:  name,
		Role:  role,
	})
	require.NoError(t, err)

	return user.Principal()
}

func (f *fixture) submit(t *testing.T, owner domain.Principal, title, amount string) *domain.Expense {
	t.Helper()

	expense, err := f.workflow.Submit(context.Background(), owner, usecase.SubmitExpenseInput{
		Title:    title,
		Amount:   amount,
		Category: "Equipment",
		Date:     "2024-01-15",
	})
	require.NoError(t, err)

	return expense
}

func remark(s string) *string { return &s }

// Run executes the conformance suite. Subtests run sequentially because
// backends may share one database between them.
func Run(t *testing.T, newBackend Factory) {
	ctx := context.Background()

	t.Run("submit and fetch", func(t *testing.T) {
		f := newFixture(t, newBackend)

		submitted := f.submit(t, f.jane, "Laptop", "1200.00")
		assert.Equal(t, domain.ExpenseStatusPending, submitted.Status)

		got, err := f.workflow.GetExpense(ctx, f.jane, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, submitted.ID, got.ID)
		assert.Equal(t, f.jane.ID, got.OwnerID)
		assert.Equal(t, "Laptop", got.Title)
		assert.True(t, decimal.RequireFromString("1200").Equal(got.Amount), "amount %s", got.Amount)
		assert.Equal(t, "2024-01-15", got.DateString())
		assert.Equal(t, domain.ExpenseStatusPending, got.Status)
		assert.Equal(t, "Jane Employee", got.OwnerName)
		assert.Equal(t, "jane@example.com", got.OwnerEmail)
		assert.True(t, got.CreatedAt.Equal(submitted.CreatedAt))

		own, err := f.workflow.ListOwn(ctx, f.jane, "")
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, submitted.ID, own[0].ID)
	})

	t.Run("approve records one ledger entry", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Laptop", "1200.00")

		decided, approval, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionApproved,
			Remark:    remark("OK"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseStatusApproved, decided.Status)
		assert.Equal(t, f.mary.ID, approval.ApproverID)

		expense, history, err := f.workflow.GetHistory(ctx, f.jane, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseStatusApproved, expense.Status)
		assert.False(t, expense.UpdatedAt.Before(expense.CreatedAt))
		require.Len(t, history, 1)
		assert.Equal(t, domain.DecisionApproved, history[0].Decision)
		require.NotNil(t, history[0].Remark)
		assert.Equal(t, "OK", *history[0].Remark)
		assert.Equal(t, "Mary Manager", history[0].ApproverName)

		latest, err := f.workflow.LatestDecision(ctx, f.jane, submitted.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, approval.ID, latest.ID)

		pending, err := f.workflow.ListPendingForReview(ctx, f.mary)
		require.NoError(t, err)
		assert.Empty(t, pending)

		decisions, err := f.workflow.ListDecisionsByApprover(ctx, f.mary)
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, submitted.ID, decisions[0].ExpenseID)
	})

	t.Run("terminal expense cannot be decided again", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Taxi", "35.50")

		_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionRejected,
			Remark:    remark("No receipt"),
		})
		require.NoError(t, err)

		_, _, err = f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionApproved,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidState)

		expense, history, err := f.workflow.GetHistory(ctx, f.mary, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseStatusRejected, expense.Status)
		assert.Len(t, history, 1)
	})

	t.Run("concurrent decisions have one winner", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Monitor", "300")

		const deciders = 10
		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			conflicts atomic.Int32
			others    atomic.Int32
		)

		wg.Add(deciders)
		for i := range deciders {
			decision := domain.DecisionApproved
			if i%2 == 1 {
				decision = domain.DecisionRejected
			}
			go func() {
				defer wg.Done()
				_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
					ExpenseID: submitted.ID,
					Decision:  decision,
				})
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, domain.ErrInvalidState):
					conflicts.Add(1)
				default:
					others.Add(1)
					t.Logf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), successes.Load())
		assert.Equal(t, int32(deciders-1), conflicts.Load())
		assert.Zero(t, others.Load())

		expense, history, err := f.workflow.GetHistory(ctx, f.mary, submitted.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, history[0].Decision.Status(), expense.Status)
	})

	t.Run("ledger keeps many entries per expense", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Conference", "450.25")

		older := &domain.Approval{
			ID:         "z-older",
			ExpenseID:  submitted.ID,
			ApproverID: f.mary.ID,
			Decision:   domain.DecisionRejected,
			Remark:     remark("Missing agenda"),
			DecidedAt:  time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		}
		newer := &domain.Approval{
			ID:         "a-newer",
			ExpenseID:  submitted.ID,
			ApproverID: f.mary.ID,
			Decision:   domain.DecisionApproved,
			DecidedAt:  time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC),
		}

		tx, err := f.backend.TxManager.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, f.backend.Approvals.Append(ctx, tx, newer))
		require.NoError(t, f.backend.Approvals.Append(ctx, tx, older))
		require.NoError(t, tx.Commit(ctx))

		history, err := f.backend.Approvals.ListByExpense(ctx, submitted.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, newer.ID, history[0].ID, "newest decision first")
		assert.Equal(t, older.ID, history[1].ID)
		assert.True(t, history[0].DecidedAt.Equal(newer.DecidedAt))

		byApprover, err := f.backend.Approvals.ListByApprover(ctx, f.mary.ID)
		require.NoError(t, err)
		require.Len(t, byApprover, 2)
		assert.Equal(t, newer.ID, byApprover[0].ID)
		assert.Equal(t, older.ID, byApprover[1].ID)
		assert.Equal(t, "Conference", byApprover[0].ExpenseTitle)
		assert.True(t, decimal.RequireFromString("450.25").Equal(byApprover[0].ExpenseAmount))
		assert.Equal(t, "Jane Employee", byApprover[0].EmployeeName)
		assert.Equal(t, "Mary Manager", byApprover[0].ApproverName)

		latest, err := f.backend.Approvals.LatestForExpense(ctx, submitted.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, newer.ID, latest.ID)
		assert.Equal(t, domain.DecisionApproved, latest.Decision)
	})

	t.Run("update fields patches columns and bumps updated at", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Laptop", "1200.00")

		title := "Laptop and dock"
		amount := decimal.RequireFromString("1350.40")
		date := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
		description := "Dock added after review"
		updatedAt := submitted.UpdatedAt.Add(time.Hour)

		tx, err := f.backend.TxManager.Begin(ctx)
		require.NoError(t, err)
		_, err = f.backend.Expenses.GetByIDForUpdate(ctx, tx, submitted.ID)
		require.NoError(t, err)
		require.NoError(t, f.backend.Expenses.UpdateFields(ctx, tx, submitted.ID, domain.ExpensePatch{
			Title:       &title,
			Amount:      &amount,
			Date:        &date,
			Description: &description,
		}, updatedAt))
		require.NoError(t, tx.Commit(ctx))

		got, err := f.backend.Expenses.GetByID(ctx, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		assert.True(t, amount.Equal(got.Amount), "amount %s", got.Amount)
		assert.Equal(t, "2024-01-20", got.DateString())
		require.NotNil(t, got.Description)
		assert.Equal(t, description, *got.Description)
		assert.Equal(t, "Equipment", got.Category, "untouched column")
		assert.Equal(t, domain.ExpenseStatusPending, got.Status, "untouched column")
		assert.False(t, got.UpdatedAt.Before(submitted.UpdatedAt), "updated_at must not go backwards")
		assert.True(t, got.UpdatedAt.Equal(updatedAt), "updated_at %s", got.UpdatedAt)
		assert.True(t, got.CreatedAt.Equal(submitted.CreatedAt))

		tx, err = f.backend.TxManager.Begin(ctx)
		require.NoError(t, err)
		err = f.backend.Expenses.UpdateFields(ctx, tx, "does-not-exist", domain.ExpensePatch{Title: &title}, updatedAt)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, tx.Rollback(ctx))
	})

	t.Run("out of range amounts never reach the store", func(t *testing.T) {
		f := newFixture(t, newBackend)

		for _, amount := range []string{"1e-400", "0.001", "1e400"} {
			_, err := f.workflow.Submit(ctx, f.jane, usecase.SubmitExpenseInput{
				Title:    "Rounding",
				Amount:   amount,
				Category: "Other",
				Date:     "2024-01-15",
			})
			assert.ErrorIs(t, err, domain.ErrValidation, "amount %s", amount)
		}

		own, err := f.workflow.ListOwn(ctx, f.jane, "")
		require.NoError(t, err)
		assert.Empty(t, own)
	})

	t.Run("unknown principal cannot submit", func(t *testing.T) {
		f := newFixture(t, newBackend)

		ghost := domain.Principal{ID: "ghost", Role: domain.RoleEmployee}
		_, err := f.workflow.Submit(ctx, ghost, usecase.SubmitExpenseInput{
			Title:    "Lunch",
			Amount:   "12",
			Category: "Other",
			Date:     "2024-01-15",
		})
		assert.ErrorIs(t, err, domain.ErrAuthorization)

		all, err := f.workflow.ListAll(ctx, f.mary, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("unknown approver cannot decide", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Chair", "150")

		ghost := domain.Principal{ID: "ghost-manager", Role: domain.RoleManager}
		_, _, err := f.workflow.Decide(ctx, ghost, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionApproved,
		})
		assert.ErrorIs(t, err, domain.ErrAuthorization)

		expense, history, err := f.workflow.GetHistory(ctx, f.mary, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseStatusPending, expense.Status)
		assert.Empty(t, history)
	})

	t.Run("decide unknown expense", func(t *testing.T) {
		f := newFixture(t, newBackend)

		_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: "does-not-exist",
			Decision:  domain.DecisionApproved,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("listings", func(t *testing.T) {
		f := newFixture(t, newBackend)

		first := f.submit(t, f.jane, "Train", "80")
		second := f.submit(t, f.jane, "Hotel", "240")
		other := f.submit(t, f.john, "Books", "45")

		_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: first.ID,
			Decision:  domain.DecisionApproved,
		})
		require.NoError(t, err)

		own, err := f.workflow.ListOwn(ctx, f.jane, "")
		require.NoError(t, err)
		require.Len(t, own, 2)
		assert.Equal(t, second.ID, own[0].ID, "newest first")
		assert.Equal(t, first.ID, own[1].ID)

		pendingOwn, err := f.workflow.ListOwn(ctx, f.jane, "PENDING")
		require.NoError(t, err)
		require.Len(t, pendingOwn, 1)
		assert.Equal(t, second.ID, pendingOwn[0].ID)

		unknownFilter, err := f.workflow.ListOwn(ctx, f.jane, "bogus")
		require.NoError(t, err)
		assert.Len(t, unknownFilter, 2)

		pending, err := f.workflow.ListPendingForReview(ctx, f.mary)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, other.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)

		all, err := f.workflow.ListAll(ctx, f.mary, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		approved, err := f.workflow.ListAll(ctx, f.mary, "APPROVED")
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, first.ID, approved[0].ID)

		_, err = f.workflow.GetExpense(ctx, f.jane, other.ID)
		assert.ErrorIs(t, err, domain.ErrAuthorization)

		_, err = f.workflow.ListPendingForReview(ctx, f.jane)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("ledger consistency", func(t *testing.T) {
		f := newFixture(t, newBackend)

		approved := f.submit(t, f.jane, "Laptop", "1200.00")
		f.submit(t, f.john, "Taxi", "20")

		_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: approved.ID,
			Decision:  domain.DecisionApproved,
		})
		require.NoError(t, err)

		report, err := f.ledger.CheckConsistency(ctx, f.mary)
		require.NoError(t, err)
		assert.Equal(t, int64(2), report.Expenses)
		assert.Equal(t, int64(1), report.Approvals)
		assert.True(t, report.Consistent())

		_, err = f.ledger.CheckConsistency(ctx, f.jane)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("admin delete cascades to ledger", func(t *testing.T) {
		f := newFixture(t, newBackend)
		submitted := f.submit(t, f.jane, "Desk", "500")

		_, approval, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionRejected,
		})
		require.NoError(t, err)

		require.NoError(t, f.backend.Expenses.Delete(ctx, submitted.ID))

		_, err = f.backend.Expenses.GetByID(ctx, submitted.ID)
		assert.ErrorIs(t, err, domain.ErrExpenseNotFound)

		history, err := f.backend.Approvals.ListByExpense(ctx, submitted.ID)
		require.NoError(t, err)
		assert.Empty(t, history)

		assert.ErrorIs(t, f.backend.Approvals.Delete(ctx, approval.ID), domain.ErrNotFound)
		assert.ErrorIs(t, f.backend.Expenses.Delete(ctx, submitted.ID), domain.ErrExpenseNotFound)
	})

	t.Run("user directory", func(t *testing.T) {
		f := newFixture(t, newBackend)

		_, err := f.users.CreateUser(ctx, usecase.CreateUserInput{
			Email: "JANE@example.com",
			Name:  "Another Jane",
			Role:  domain.RoleEmployee,
		})
		assert.ErrorIs(t, err, usecase.ErrUserExists)

		user, err := f.users.GetUserByEmail(ctx, "mary@example.com")
		require.NoError(t, err)
		assert.Equal(t, f.mary.ID, user.ID)
		assert.Equal(t, domain.RoleManager, user.Role)

		_, err = f.users.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		users, err := f.users.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})

	t.Run("outbox records lifecycle events", func(t *testing.T) {
		f := newFixture(t, newBackend)
		if f.backend.Outbox == nil {
			t.Skip("backend has no outbox")
		}

		submitted := f.submit(t, f.jane, "Laptop", "1200.00")
		_, _, err := f.workflow.Decide(ctx, f.mary, usecase.DecideInput{
			ExpenseID: submitted.ID,
			Decision:  domain.DecisionApproved,
		})
		require.NoError(t, err)

		events, err := f.backend.Outbox.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.EventTypeExpenseSubmitted, events[0].EventType)
		assert.Equal(t, domain.EventTypeExpenseDecided, events[1].EventType)
		assert.Equal(t, submitted.ID, events[1].AggregateID)
		assert.Equal(t, "APPROVED", events[1].Payload["decision"])

		for _, ev := range events {
			require.NoError(t, f.backend.Outbox.MarkPublished(ctx, ev.ID, time.Now()))
		}

		events, err = f.backend.Outbox.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
