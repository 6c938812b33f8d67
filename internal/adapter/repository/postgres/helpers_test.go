package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

func TestMapPgError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unknown owner",
			err:  &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintExpenseOwner},
			want: domain.ErrUnknownPrincipal,
		},
		{
			name: "unknown approver",
			err:  &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintApprovalApprover},
			want: domain.ErrUnknownPrincipal,
		},
		{
			name: "missing expense",
			err:  &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintApprovalExpense},
			want: domain.ErrExpenseNotFound,
		},
		{
			name: "duplicate email",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintUserEmail},
			want: usecase.ErrUserExists,
		},
		{
			name: "plain error",
			err:  plain,
			want: plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapPgError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("mapPgError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapPgError_UnmappedConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "approvals_pkey"}
	if got := mapPgError(pgErr); got != error(pgErr) {
		t.Fatalf("expected error to pass through, got %v", got)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, raw := range []string{"1200.00", "0.01", "42", "999999.999"} {
		d := decimal.RequireFromString(raw)
		n := decimalToPgNumeric(d)
		if !n.Valid {
			t.Fatalf("%s: expected valid numeric", raw)
		}
		if got := pgNumericToDecimal(n); !got.Equal(d) {
			t.Errorf("%s: got %s", raw, got)
		}
	}

	if got := pgNumericToDecimal(pgtype.Numeric{}); !got.IsZero() {
		t.Errorf("invalid numeric should map to zero, got %s", got)
	}
}

func TestDateConversion(t *testing.T) {
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := pgDateToTime(dateToPgDate(d)); !got.Equal(d) {
		t.Fatalf("expected %v, got %v", d, got)
	}
	if !pgDateToTime(pgtype.Date{}).IsZero() {
		t.Fatal("invalid date should map to zero time")
	}
}

func TestTextConversion(t *testing.T) {
	if stringPtrToPgText(nil).Valid {
		t.Fatal("nil should map to NULL")
	}
	s := "receipt-1"
	if got := pgTextToStringPtr(stringPtrToPgText(&s)); got == nil || *got != s {
		t.Fatalf("expected %q, got %v", s, got)
	}
	if pgTextToStringPtr(pgtype.Text{}) != nil {
		t.Fatal("NULL should map to nil")
	}
}
