package domain

import "time"

// Event types
const (
	EventTypeExpenseSubmitted = "expense.submitted"
	EventTypeExpenseDecided   = "expense.decided"
)

// Aggregate types
const (
	AggregateTypeExpense = "expense"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewExpenseSubmittedEvent builds the outbox record for a fresh submission.
func NewExpenseSubmittedEvent(id string, e *Expense) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   e.ID,
		AggregateType: AggregateTypeExpense,
		EventType:     EventTypeExpenseSubmitted,
		Payload: map[string]any{
			"expense_id": e.ID,
			"owner_id":   e.OwnerID,
			"title":      e.Title,
			"amount":     e.Amount.String(),
			"category":   e.Category,
			"date":       e.DateString(),
		},
		CreatedAt: e.CreatedAt,
	}
}

// NewExpenseDecidedEvent builds the outbox record for a decision.
func NewExpenseDecidedEvent(id string, e *Expense, a *Approval) *OutboxEvent {
	payload := map[string]any{
		"expense_id":  e.ID,
		"approval_id": a.ID,
		"approver_id": a.ApproverID,
		"owner_id":    e.OwnerID,
		"decision":    string(a.Decision),
		"decided_at":  a.DecidedAt.UTC().Format(time.RFC3339Nano),
	}
	if a.Remark != nil {
		payload["remark"] = *a.Remark
	}
	return &OutboxEvent{
		ID:            id,
		AggregateID:   e.ID,
		AggregateType: AggregateTypeExpense,
		EventType:     EventTypeExpenseDecided,
		Payload:       payload,
		CreatedAt:     a.DecidedAt,
	}
}
