package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/auth"
)

// TokenVerifier turns a bearer token into claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserDirectory resolves token subjects against the local user directory.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator resolves the request principal from a bearer token.
type Authenticator struct {
	verifier TokenVerifier
	users    UserDirectory
}

// NewAuthenticator creates an Authenticator. A nil verifier leaves every
// request anonymous; a nil directory trusts the role carried by the token.
func NewAuthenticator(verifier TokenVerifier, users UserDirectory) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Authenticate stores the caller's principal in the request context. Requests
// without a token continue as anonymous and are rejected by the operations
// that need a principal.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || a.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := a.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}

		principal := claims.Principal()
		if a.users != nil {
			user, err := a.users.GetByID(r.Context(), claims.UserID)
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				writeJSONError(w, http.StatusForbidden, domain.ErrUnknownPrincipal.Error())
				return
			case err != nil:
				writeJSONError(w, http.StatusServiceUnavailable, "user directory unavailable")
				return
			}
			// The directory role wins so demotions apply before tokens expire.
			principal = user.Principal()
		}

		ctx := domain.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.PrincipalFromContext(r.Context()).IsAuthenticated() {
			writeJSONError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole creates a middleware that checks for a specific role.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.PrincipalFromContext(r.Context())
			if !p.IsAuthenticated() {
				writeJSONError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
				return
			}
			if p.Role != role {
				writeJSONError(w, http.StatusForbidden, domain.ErrInsufficientRole.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
