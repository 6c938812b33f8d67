package domain

import (
	"context"
	"strings"
	"time"
)

// Role represents a principal's access level
type Role string

const (
	// RoleEmployee can submit expenses and read its own
	RoleEmployee Role = "EMPLOYEE"

	// RoleManager can additionally review and decide on any expense
	RoleManager Role = "MANAGER"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager:
		return true
	default:
		return false
	}
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("role", "role must be EMPLOYEE or MANAGER")
	}
	return r, nil
}

// Principal is the authenticated caller as reported by the identity provider.
// The zero value is the unauthenticated principal.
type Principal struct {
	ID   string
	Role Role
}

// Anonymous is the principal of a request that carried no valid identity.
var Anonymous = Principal{}

// IsAuthenticated reports whether the identity provider vouched for p.
func (p Principal) IsAuthenticated() bool {
	return p.ID != "" && p.Role.IsValid()
}

// CanSubmit checks if the principal can own expenses. Ownership is not role restricted.
func (p Principal) CanSubmit() bool {
	return p.IsAuthenticated()
}

// CanDecide checks if the principal can approve or reject expenses
func (p Principal) CanDecide() bool {
	return p.IsAuthenticated() && p.Role == RoleManager
}

// CanReviewAll checks if the principal can list the whole expense population
func (p Principal) CanReviewAll() bool {
	return p.IsAuthenticated() && p.Role == RoleManager
}

// CanViewExpense checks if the principal owns e or may review any expense
func (p Principal) CanViewExpense(e *Expense) bool {
	if !p.IsAuthenticated() || e == nil {
		return false
	}
	return e.OwnerID == p.ID || p.CanReviewAll()
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, or Anonymous.
func PrincipalFromContext(ctx context.Context) Principal {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Anonymous
	}
	return p
}

// User is the local directory record of an identity provider account.
// Expenses and approvals reference it so foreign keys hold.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Principal returns the principal a token for u would carry.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role}
}
