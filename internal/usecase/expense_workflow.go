package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/metrics"
)

// Operation names used in logs and metrics.
const (
	opSubmit         = "submit"
	opDecide         = "decide"
	opGetExpense     = "get_expense"
	opGetHistory     = "get_history"
	opLatestDecision = "latest_decision"
	opListOwn        = "list_own"
	opListPending    = "list_pending"
	opListAll        = "list_all"
	opListDecisions  = "list_decisions"
)

// ExpenseWorkflow is the expense lifecycle engine. It authorizes every call,
// validates transitions and couples each status change with its ledger entry.
type ExpenseWorkflow struct {
	txManager    TransactionManager
	expenseRepo  ExpenseRepository
	approvalRepo ApprovalRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	now          func() time.Time
}

// NewExpenseWorkflow creates a new ExpenseWorkflow. outboxRepo may be nil.
func NewExpenseWorkflow(
	txManager TransactionManager,
	expenseRepo ExpenseRepository,
	approvalRepo ApprovalRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *ExpenseWorkflow {
	return &ExpenseWorkflow{
		txManager:    txManager,
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
}

// WithRetrier sets the retrier used around write transactions.
func (uc *ExpenseWorkflow) WithRetrier(r Retrier) *ExpenseWorkflow {
	uc.retrier = r
	return uc
}

// WithMetrics enables Prometheus instrumentation.
func (uc *ExpenseWorkflow) WithMetrics(m *metrics.Metrics) *ExpenseWorkflow {
	uc.metrics = m
	return uc
}

// WithLogger sets the logger for internal failures and lifecycle events.
func (uc *ExpenseWorkflow) WithLogger(logger zerolog.Logger) *ExpenseWorkflow {
	uc.logger = logger.With().Str("component", "expense_workflow").Logger()
	return uc
}

// WithClock overrides the time source.
func (uc *ExpenseWorkflow) WithClock(now func() time.Time) *ExpenseWorkflow {
	uc.now = now
	return uc
}

// SubmitExpenseInput represents input for submitting an expense.
// Amount and Date are raw text and are parsed during validation.
type SubmitExpenseInput struct {
	Title       string
	Amount      string
	Category    string
	Date        string
	Description *string
	ReceiptRef  *string
}

// DecideInput represents a manager's decision on a pending expense.
type DecideInput struct {
	ExpenseID string
	Decision  domain.Decision
	Remark    *string
}

// Submit creates a pending expense owned by the principal.
func (uc *ExpenseWorkflow) Submit(ctx context.Context, principal domain.Principal, input SubmitExpenseInput) (*domain.Expense, error) {
	defer uc.observe(opSubmit, time.Now())

	if !principal.CanSubmit() {
		return nil, uc.fail(ctx, opSubmit, "", domain.ErrUnauthenticated)
	}

	expense, err := uc.newExpense(principal, input)
	if err != nil {
		return nil, uc.fail(ctx, opSubmit, "", err)
	}

	err = uc.retry(ctx, func() error {
		return uc.submitTx(ctx, expense)
	})
	if err != nil {
		return nil, uc.fail(ctx, opSubmit, expense.ID, err)
	}

	if uc.metrics != nil {
		uc.metrics.ExpensesSubmitted.Inc()
		uc.metrics.ExpenseAmount.Observe(expense.Amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("expense_id", expense.ID).
		Str("owner_id", expense.OwnerID).
		Str("amount", expense.Amount.String()).
		Msg("expense submitted")

	return expense, nil
}

// newExpense validates input and builds a DRAFT expense, then submits it in memory.
func (uc *ExpenseWorkflow) newExpense(principal domain.Principal, input SubmitExpenseInput) (*domain.Expense, error) {
	if err := domain.ValidateTitle(input.Title); err != nil {
		return nil, err
	}

	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateCategory(input.Category); err != nil {
		return nil, err
	}

	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	now := uc.timestamp()
	expense := &domain.Expense{
		ID:          uc.idGen.Generate(),
		OwnerID:     principal.ID,
		Title:       strings.TrimSpace(input.Title),
		Amount:      amount,
		Category:    strings.TrimSpace(input.Category),
		Date:        date,
		Description: domain.NormalizeOptional(input.Description),
		ReceiptRef:  domain.NormalizeOptional(input.ReceiptRef),
		Status:      domain.ExpenseStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := expense.Fire(domain.TriggerSubmit); err != nil {
		return nil, err
	}

	return expense, nil
}

func (uc *ExpenseWorkflow) submitTx(ctx context.Context, expense *domain.Expense) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.expenseRepo.Create(txCtx, tx, expense); err != nil {
		return err
	}

	if uc.outboxRepo != nil {
		event := domain.NewExpenseSubmittedEvent(uc.idGen.Generate(), expense)
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

// Decide records a manager's decision and moves the expense to the matching
// terminal status. Exactly one decision wins per expense.
func (uc *ExpenseWorkflow) Decide(ctx context.Context, principal domain.Principal, input DecideInput) (*domain.Expense, *domain.Approval, error) {
	defer uc.observe(opDecide, time.Now())

	if err := requireManager(principal); err != nil {
		return nil, nil, uc.fail(ctx, opDecide, input.ExpenseID, err)
	}

	if !input.Decision.IsValid() {
		return nil, nil, uc.fail(ctx, opDecide, input.ExpenseID,
			domain.NewValidationError("decision", "decision must be APPROVED or REJECTED"))
	}

	if strings.TrimSpace(input.ExpenseID) == "" {
		return nil, nil, uc.fail(ctx, opDecide, "", domain.NewValidationError("expense_id", "expense id is required"))
	}

	remark := domain.NormalizeOptional(input.Remark)
	if err := domain.ValidateRemark(remark); err != nil {
		return nil, nil, uc.fail(ctx, opDecide, input.ExpenseID, err)
	}

	var (
		expense  *domain.Expense
		approval *domain.Approval
	)
	err := uc.retry(ctx, func() error {
		var txErr error
		expense, approval, txErr = uc.decideTx(ctx, principal, input.ExpenseID, input.Decision, remark)
		return txErr
	})
	if err != nil {
		if uc.metrics != nil && errors.Is(err, domain.ErrExpenseNotPending) {
			uc.metrics.DecisionConflicts.Inc()
		}
		return nil, nil, uc.fail(ctx, opDecide, input.ExpenseID, err)
	}

	if uc.metrics != nil {
		uc.metrics.Decisions.WithLabelValues(string(approval.Decision)).Inc()
	}

	uc.logger.Info().
		Str("expense_id", expense.ID).
		Str("approver_id", approval.ApproverID).
		Str("decision", string(approval.Decision)).
		Msg("expense decided")

	return expense, approval, nil
}

func (uc *ExpenseWorkflow) decideTx(
	ctx context.Context,
	principal domain.Principal,
	expenseID string,
	decision domain.Decision,
	remark *string,
) (*domain.Expense, *domain.Approval, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock expense; the status check below is authoritative for racing deciders.
	expense, err := uc.expenseRepo.GetByIDForUpdate(txCtx, tx, expenseID)
	if err != nil {
		return nil, nil, err
	}

	if expense.Status != domain.ExpenseStatusPending {
		return nil, nil, domain.ErrExpenseNotPending
	}

	if err := expense.Fire(decision.Trigger()); err != nil {
		return nil, nil, err
	}

	now := uc.timestamp()
	if now.Before(expense.UpdatedAt) {
		now = expense.UpdatedAt
	}

	approval := &domain.Approval{
		ID:         uc.idGen.Generate(),
		ExpenseID:  expense.ID,
		ApproverID: principal.ID,
		Decision:   decision,
		Remark:     remark,
		DecidedAt:  now,
	}

	if err := uc.approvalRepo.Append(txCtx, tx, approval); err != nil {
		return nil, nil, err
	}

	status := expense.Status
	if err := uc.expenseRepo.UpdateFields(txCtx, tx, expense.ID, domain.ExpensePatch{Status: &status}, now); err != nil {
		return nil, nil, err
	}
	expense.UpdatedAt = now

	if uc.outboxRepo != nil {
		event := domain.NewExpenseDecidedEvent(uc.idGen.Generate(), expense, approval)
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	return expense, approval, nil
}

// GetExpense returns an expense readable by the principal.
func (uc *ExpenseWorkflow) GetExpense(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, error) {
	defer uc.observe(opGetExpense, time.Now())

	expense, err := uc.viewableExpense(ctx, principal, expenseID)
	if err != nil {
		return nil, uc.fail(ctx, opGetExpense, expenseID, err)
	}
	return expense, nil
}

// GetHistory returns the expense with its decisions, most recent first.
// The returned pair is consistent: a decision is never returned beside a
// still pending expense.
func (uc *ExpenseWorkflow) GetHistory(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, []*domain.Approval, error) {
	defer uc.observe(opGetHistory, time.Now())

	expense, err := uc.viewableExpense(ctx, principal, expenseID)
	if err != nil {
		return nil, nil, uc.fail(ctx, opGetHistory, expenseID, err)
	}

	approvals, err := uc.approvalRepo.ListByExpense(ctx, expense.ID)
	if err != nil {
		return nil, nil, uc.fail(ctx, opGetHistory, expenseID, err)
	}

	// A decision committed between the two reads. Status and ledger entry
	// commit together, so a second read of the expense observes it.
	if len(approvals) > 0 && expense.Status == domain.ExpenseStatusPending {
		expense, err = uc.expenseRepo.GetByID(ctx, expense.ID)
		if err != nil {
			return nil, nil, uc.fail(ctx, opGetHistory, expenseID, err)
		}
	}

	if approvals == nil {
		approvals = []*domain.Approval{}
	}

	return expense, approvals, nil
}

// LatestDecision returns the most recent decision on an expense, or nil.
func (uc *ExpenseWorkflow) LatestDecision(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Approval, error) {
	defer uc.observe(opLatestDecision, time.Now())

	expense, err := uc.viewableExpense(ctx, principal, expenseID)
	if err != nil {
		return nil, uc.fail(ctx, opLatestDecision, expenseID, err)
	}

	approval, err := uc.approvalRepo.LatestForExpense(ctx, expense.ID)
	if err != nil {
		return nil, uc.fail(ctx, opLatestDecision, expenseID, err)
	}
	return approval, nil
}

// ListOwn lists the principal's expenses, newest first. Unrecognized status
// filters are ignored and the full list is returned.
func (uc *ExpenseWorkflow) ListOwn(ctx context.Context, principal domain.Principal, statusFilter string) ([]*domain.Expense, error) {
	defer uc.observe(opListOwn, time.Now())

	if !principal.IsAuthenticated() {
		return nil, uc.fail(ctx, opListOwn, "", domain.ErrUnauthenticated)
	}

	expenses, err := uc.expenseRepo.ListByOwner(ctx, principal.ID, domain.ParseStatusFilter(statusFilter))
	if err != nil {
		return nil, uc.fail(ctx, opListOwn, "", err)
	}
	return nonNil(expenses), nil
}

// ListPendingForReview lists every pending expense. Managers only.
func (uc *ExpenseWorkflow) ListPendingForReview(ctx context.Context, principal domain.Principal) ([]*domain.Expense, error) {
	defer uc.observe(opListPending, time.Now())

	if err := requireReviewer(principal); err != nil {
		return nil, uc.fail(ctx, opListPending, "", err)
	}

	expenses, err := uc.expenseRepo.ListByStatus(ctx, domain.ExpenseStatusPending)
	if err != nil {
		return nil, uc.fail(ctx, opListPending, "", err)
	}
	return nonNil(expenses), nil
}

// ListAll lists the whole expense population, optionally by status. Managers only.
func (uc *ExpenseWorkflow) ListAll(ctx context.Context, principal domain.Principal, statusFilter string) ([]*domain.Expense, error) {
	defer uc.observe(opListAll, time.Now())

	if err := requireReviewer(principal); err != nil {
		return nil, uc.fail(ctx, opListAll, "", err)
	}

	var (
		expenses []*domain.Expense
		err      error
	)
	if status, ok := domain.ParseStatusFilter(statusFilter).Status(); ok {
		expenses, err = uc.expenseRepo.ListByStatus(ctx, status)
	} else {
		expenses, err = uc.expenseRepo.ListAll(ctx)
	}
	if err != nil {
		return nil, uc.fail(ctx, opListAll, "", err)
	}
	return nonNil(expenses), nil
}

// ListDecisionsByApprover lists the decisions the principal made, newest first.
func (uc *ExpenseWorkflow) ListDecisionsByApprover(ctx context.Context, principal domain.Principal) ([]*domain.Approval, error) {
	defer uc.observe(opListDecisions, time.Now())

	if err := requireManager(principal); err != nil {
		return nil, uc.fail(ctx, opListDecisions, "", err)
	}

	approvals, err := uc.approvalRepo.ListByApprover(ctx, principal.ID)
	if err != nil {
		return nil, uc.fail(ctx, opListDecisions, "", err)
	}
	if approvals == nil {
		approvals = []*domain.Approval{}
	}
	return approvals, nil
}

func (uc *ExpenseWorkflow) viewableExpense(ctx context.Context, principal domain.Principal, expenseID string) (*domain.Expense, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	expense, err := uc.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if !principal.CanViewExpense(expense) {
		return nil, domain.ErrNotOwner
	}
	return expense, nil
}

func requireManager(principal domain.Principal) error {
	if !principal.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	if !principal.CanDecide() {
		return domain.ErrInsufficientRole
	}
	return nil
}

func requireReviewer(principal domain.Principal) error {
	if !principal.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	if !principal.CanReviewAll() {
		return domain.ErrInsufficientRole
	}
	return nil
}

func (uc *ExpenseWorkflow) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

// timestamp returns the current time at the storage precision.
func (uc *ExpenseWorkflow) timestamp() time.Time {
	return uc.now().UTC().Truncate(time.Microsecond)
}

// fail passes domain errors through and wraps everything else as internal.
func (uc *ExpenseWorkflow) fail(ctx context.Context, op, expenseID string, err error) error {
	kind := errorKind(err)
	if uc.metrics != nil {
		uc.metrics.WorkflowErrors.WithLabelValues(op, kind).Inc()
	}

	if domain.IsDomainError(err) {
		return err
	}

	uc.logger.Error().
		Ctx(ctx).
		Err(err).
		Str("operation", op).
		Str("expense_id", expenseID).
		Msg("workflow operation failed")

	if errors.Is(err, domain.ErrInternal) {
		return err
	}
	return domain.Internal(op, err)
}

func (uc *ExpenseWorkflow) observe(op string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.WorkflowDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrAuthorization):
		return "authorization"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}

func nonNil(expenses []*domain.Expense) []*domain.Expense {
	if expenses == nil {
		return []*domain.Expense{}
	}
	return expenses
}
