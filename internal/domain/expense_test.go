package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		raw     string
		wantSet bool
		want    ExpenseStatus
	}{
		{raw: "", wantSet: false},
		{raw: "PENDING", wantSet: true, want: ExpenseStatusPending},
		{raw: "DRAFT", wantSet: true, want: ExpenseStatusDraft},
		{raw: "APPROVED", wantSet: true, want: ExpenseStatusApproved},
		{raw: "REJECTED", wantSet: true, want: ExpenseStatusRejected},
		{raw: "pending", wantSet: false},
		{raw: "bogus", wantSet: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := ParseStatusFilter(tt.raw)
			got, set := f.Status()
			if set != tt.wantSet {
				t.Fatalf("expected set=%v, got %v", tt.wantSet, set)
			}
			if set && got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatusFilter_Matches(t *testing.T) {
	for _, s := range ExpenseStatuses {
		if !NoStatusFilter.Matches(s) {
			t.Errorf("empty filter rejected %s", s)
		}
	}

	f := FilterByStatus(ExpenseStatusPending)
	if !f.Matches(ExpenseStatusPending) {
		t.Error("filter rejected its own status")
	}
	if f.Matches(ExpenseStatusApproved) {
		t.Error("filter admitted another status")
	}
}

func TestExpensePatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	e := &Expense{
		ID:        "exp-1",
		OwnerID:   "user-1",
		Title:     "Laptop",
		Amount:    decimal.RequireFromString("999.99"),
		Category:  "Equipment",
		Status:    ExpenseStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}

	title := "Laptop stand"
	status := ExpenseStatusApproved
	later := created.Add(time.Hour)
	ExpensePatch{Title: &title, Status: &status}.Apply(e, later)

	if e.Title != title || e.Status != ExpenseStatusApproved {
		t.Fatalf("patch not applied: %+v", e)
	}
	if e.Category != "Equipment" || !e.Amount.Equal(decimal.RequireFromString("999.99")) {
		t.Error("unset fields changed")
	}
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("expected updated_at %v, got %v", later, e.UpdatedAt)
	}

	// A clock that steps backwards never moves updated_at back.
	ExpensePatch{Title: &title}.Apply(e, created)
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("updated_at moved backwards to %v", e.UpdatedAt)
	}
}

func TestExpensePatch_IsEmpty(t *testing.T) {
	if !(ExpensePatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	c := "Travel"
	if (ExpensePatch{Category: &c}).IsEmpty() {
		t.Error("patch with category should not be empty")
	}
}

func TestExpenseStatus(t *testing.T) {
	if ExpenseStatus("ARCHIVED").IsValid() {
		t.Error("unknown status reported valid")
	}
	for _, s := range ExpenseStatuses {
		if !s.IsValid() {
			t.Errorf("%s reported invalid", s)
		}
	}
	if ExpenseStatusPending.IsTerminal() || ExpenseStatusDraft.IsTerminal() {
		t.Error("open status reported terminal")
	}
	if !ExpenseStatusApproved.IsTerminal() || !ExpenseStatusRejected.IsTerminal() {
		t.Error("decided status reported open")
	}
}
