package domain

import (
	"context"
	"testing"
)

func TestPrincipalCapabilities(t *testing.T) {
	employee := Principal{ID: "emp-1", Role: RoleEmployee}
	manager := Principal{ID: "mgr-1", Role: RoleManager}
	own := &Expense{OwnerID: "emp-1"}
	other := &Expense{OwnerID: "emp-2"}

	tests := []struct {
		name      string
		p         Principal
		submit    bool
		decide    bool
		reviewAll bool
		viewOwn   bool
		viewOther bool
	}{
		{name: "anonymous", p: Anonymous},
		{name: "unknown role", p: Principal{ID: "x", Role: "ADMIN"}},
		{name: "employee", p: employee, submit: true, viewOwn: true},
		{name: "manager", p: manager, submit: true, decide: true, reviewAll: true, viewOwn: true, viewOther: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.CanSubmit(); got != tt.submit {
				t.Errorf("CanSubmit = %v", got)
			}
			if got := tt.p.CanDecide(); got != tt.decide {
				t.Errorf("CanDecide = %v", got)
			}
			if got := tt.p.CanReviewAll(); got != tt.reviewAll {
				t.Errorf("CanReviewAll = %v", got)
			}
			if got := tt.p.CanViewExpense(own); got != tt.viewOwn {
				t.Errorf("CanViewExpense(own) = %v", got)
			}
			if got := tt.p.CanViewExpense(other); got != tt.viewOther {
				t.Errorf("CanViewExpense(other) = %v", got)
			}
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if p := PrincipalFromContext(ctx); p.IsAuthenticated() {
		t.Fatalf("empty context yielded %+v", p)
	}

	want := Principal{ID: "mgr-1", Role: RoleManager}
	if got := PrincipalFromContext(WithPrincipal(ctx, want)); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("manager"); err != nil || r != RoleManager {
		t.Errorf("ParseRole(manager) = %s, %v", r, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Error("expected error for admin")
	}
}
