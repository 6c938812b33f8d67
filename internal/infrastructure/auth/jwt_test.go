package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	user := &domain.User{
		ID:    "user-123",
		Email: "mary@example.com",
		Name:  "Mary",
		Role:  domain.RoleManager,
	}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.UserID != user.ID || claims.Email != user.Email || claims.Role != user.Role {
		t.Fatalf("expected claims to match user, got %+v", claims)
	}
	if claims.Subject != user.ID || claims.Issuer != auth.Issuer {
		t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
	}
	if claims.Principal() != user.Principal() {
		t.Fatalf("expected principal %+v, got %+v", user.Principal(), claims.Principal())
	}
}

func TestJWTManagerGenerateRejectsInvalidUser(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	for _, user := range []*domain.User{
		nil,
		{ID: "", Role: domain.RoleEmployee},
		{ID: "u", Role: "ADMIN"},
	} {
		if _, err := manager.Generate(user); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Generate(%+v): expected validation error, got %v", user, err)
		}
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		UserID: "expired",
		Email:  "expired@example.com",
		Role:   domain.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	if _, err := otherManager.Verify(expiredToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected failure for malformed token")
	}

	// Verification failures are authorization errors so they map to 401/403.
	if !errors.Is(domain.ErrInvalidToken, domain.ErrAuthorization) {
		t.Fatal("invalid token must be an authorization error")
	}
}

func TestJWTManagerVerifyRejectsForeignIssuerAndRole(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)
	sign := func(c auth.Claims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Minute))

	foreign := sign(auth.Claims{
		UserID:           "u",
		Role:             domain.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: exp},
	})
	if _, err := manager.Verify(foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected foreign issuer to be rejected, got %v", err)
	}

	badRole := sign(auth.Claims{
		UserID:           "u",
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: auth.Issuer, ExpiresAt: exp},
	})
	if _, err := manager.Verify(badRole); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestJWTManagerWithClock(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	manager := auth.NewJWTManager("secret", time.Hour).WithClock(func() time.Time { return current })

	token, err := manager.Generate(&domain.User{ID: "u", Role: domain.RoleEmployee})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	current = issued.Add(30 * time.Minute)
	if _, err := manager.Verify(token); err != nil {
		t.Fatalf("expected token valid after 30m, got %v", err)
	}

	current = issued.Add(2 * time.Hour)
	if _, err := manager.Verify(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected token expired after 2h, got %v", err)
	}
}
