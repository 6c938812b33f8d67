package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// LedgerService defines ledger-wide checks.
type LedgerService interface {
	CheckConsistency(ctx context.Context, principal domain.Principal) (*domain.LedgerReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledger LedgerService
	logger zerolog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger LedgerService, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// CheckConsistency reports whether approvals agree with expense statuses.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.CheckConsistency(r.Context(), principal(r))
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, dto.LedgerConsistencyResponse{
				Status:     "inconsistent",
				Consistent: false,
				Report:     report,
				Message:    err.Error(),
			})
			return
		}
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerConsistencyResponse{
		Status:     "consistent",
		Consistent: true,
		Report:     report,
	})
}
