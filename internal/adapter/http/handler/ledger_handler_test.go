package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

type ledgerServiceStub struct {
	report *domain.LedgerReport
	err    error
}

func (s ledgerServiceStub) CheckConsistency(context.Context, domain.Principal) (*domain.LedgerReport, error) {
	return s.report, s.err
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		stub       ledgerServiceStub
		status     int
		consistent bool
	}{
		{
			name:       "consistent",
			stub:       ledgerServiceStub{report: &domain.LedgerReport{Expenses: 3, Approvals: 2}},
			status:     http.StatusOK,
			consistent: true,
		},
		{
			name:   "inconsistent",
			stub:   ledgerServiceStub{report: &domain.LedgerReport{Expenses: 3, StatusMismatch: 1}, err: usecase.ErrInconsistentLedger},
			status: http.StatusConflict,
		},
		{
			name:   "employee",
			stub:   ledgerServiceStub{err: domain.ErrInsufficientRole},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLedgerHandler(tt.stub, zerolog.Nop())
			rec := httptest.NewRecorder()

			h.CheckConsistency(rec, asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), mary))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.stub.report == nil {
				return
			}

			var resp dto.LedgerConsistencyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Consistent != tt.consistent || resp.Report == nil || resp.Report.Expenses != 3 {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}
