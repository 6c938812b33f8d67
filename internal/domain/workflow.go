package domain

import "fmt"

// Trigger is an event that moves an expense between statuses.
type Trigger string

const (
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// IsValid checks if the trigger is known
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerSubmit, TriggerApprove, TriggerReject:
		return true
	default:
		return false
	}
}

// transitions is the complete lifecycle. Terminal statuses have no entry.
var transitions = map[ExpenseStatus]map[Trigger]ExpenseStatus{
	ExpenseStatusDraft: {
		TriggerSubmit: ExpenseStatusPending,
	},
	ExpenseStatusPending: {
		TriggerApprove: ExpenseStatusApproved,
		TriggerReject:  ExpenseStatusRejected,
	},
}

// CanFire reports whether trigger is permitted from status.
func CanFire(from ExpenseStatus, trigger Trigger) bool {
	_, ok := transitions[from][trigger]
	return ok
}

// NextStatus returns the status reached by firing trigger from status.
func NextStatus(from ExpenseStatus, trigger Trigger) (ExpenseStatus, error) {
	to, ok := transitions[from][trigger]
	if !ok {
		return "", fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// Fire moves e to the status reached by trigger. e is left unchanged on error.
func (e *Expense) Fire(trigger Trigger) error {
	to, err := NextStatus(e.Status, trigger)
	if err != nil {
		return err
	}
	e.Status = to
	return nil
}

// Permitted lists the triggers that may fire from status.
func Permitted(from ExpenseStatus) []Trigger {
	var out []Trigger
	for _, t := range []Trigger{TriggerSubmit, TriggerApprove, TriggerReject} {
		if CanFire(from, t) {
			out = append(out, t)
		}
	}
	return out
}
