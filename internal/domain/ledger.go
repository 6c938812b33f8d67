package domain

// LedgerReport summarizes how well the approval ledger agrees with expense statuses.
type LedgerReport struct {
	Expenses  int64 `json:"expenses"`
	Approvals int64 `json:"approvals"`
	// Decided expenses with no ledger entry.
	DecidedWithoutEntry int64 `json:"decided_without_entry"`
	// Draft or pending expenses that already have a ledger entry.
	OpenWithEntry int64 `json:"open_with_entry"`
	// Decided expenses whose latest entry disagrees with their status.
	StatusMismatch int64 `json:"status_mismatch"`
}

// Consistent reports whether every decided expense is backed by a matching entry
// and no open expense has one.
func (r LedgerReport) Consistent() bool {
	return r.DecidedWithoutEntry == 0 && r.OpenWithEntry == 0 && r.StatusMismatch == 0
}
