package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

type reviewServiceStub struct {
	pendingFn   func(ctx context.Context, p domain.Principal) ([]*domain.Expense, error)
	listFn      func(ctx context.Context, p domain.Principal, status string) ([]*domain.Expense, error)
	decideFn    func(ctx context.Context, p domain.Principal, input usecase.DecideInput) (*domain.Expense, *domain.Approval, error)
	historyFn   func(ctx context.Context, p domain.Principal, id string) (*domain.Expense, []*domain.Approval, error)
	latestFn    func(ctx context.Context, p domain.Principal, id string) (*domain.Approval, error)
	decisionsFn func(ctx context.Context, p domain.Principal) ([]*domain.Approval, error)
}

func (s *reviewServiceStub) ListPendingForReview(ctx context.Context, p domain.Principal) ([]*domain.Expense, error) {
	return s.pendingFn(ctx, p)
}

func (s *reviewServiceStub) ListAll(ctx context.Context, p domain.Principal, status string) ([]*domain.Expense, error) {
	return s.listFn(ctx, p, status)
}

func (s *reviewServiceStub) Decide(ctx context.Context, p domain.Principal, input usecase.DecideInput) (*domain.Expense, *domain.Approval, error) {
	return s.decideFn(ctx, p, input)
}

func (s *reviewServiceStub) GetHistory(ctx context.Context, p domain.Principal, id string) (*domain.Expense, []*domain.Approval, error) {
	return s.historyFn(ctx, p, id)
}

func (s *reviewServiceStub) LatestDecision(ctx context.Context, p domain.Principal, id string) (*domain.Approval, error) {
	return s.latestFn(ctx, p, id)
}

func (s *reviewServiceStub) ListDecisionsByApprover(ctx context.Context, p domain.Principal) ([]*domain.Approval, error) {
	return s.decisionsFn(ctx, p)
}

func TestManagerHandler_Decide_Success(t *testing.T) {
	var captured usecase.DecideInput
	h := NewManagerHandler(&reviewServiceStub{
		decideFn: func(_ context.Context, p domain.Principal, input usecase.DecideInput) (*domain.Expense, *domain.Approval, error) {
			if p != mary {
				t.Fatalf("expected manager principal, got %+v", p)
			}
			captured = input
			return sampleExpense(input.ExpenseID, domain.ExpenseStatusRejected), &domain.Approval{
				ID:         "ap-1",
				ExpenseID:  input.ExpenseID,
				ApproverID: p.ID,
				Decision:   input.Decision,
				Remark:     input.Remark,
				DecidedAt:  time.Now(),
			}, nil
		},
	}, zerolog.Nop())

	body := `{"decision":"REJECTED","remark":"missing receipt"}`
	req := asPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), mary)
	req = setChiURLParam(req, "id", "exp-1")
	rec := httptest.NewRecorder()

	h.Decide(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ExpenseID != "exp-1" || captured.Decision != domain.DecisionRejected || *captured.Remark != "missing receipt" {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.DecisionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Expense rejected successfully" || resp.Approval.ID != "ap-1" || resp.Expense.Status != "REJECTED" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestManagerHandler_Decide_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"employee", domain.ErrInsufficientRole, http.StatusForbidden},
		{"bad decision", domain.NewValidationError("decision", "decision must be APPROVED or REJECTED"), http.StatusBadRequest},
		{"missing", domain.ErrExpenseNotFound, http.StatusNotFound},
		{"already decided", domain.ErrExpenseNotPending, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewManagerHandler(&reviewServiceStub{
				decideFn: func(context.Context, domain.Principal, usecase.DecideInput) (*domain.Expense, *domain.Approval, error) {
					return nil, nil, tt.err
				},
			}, zerolog.Nop())

			req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"decision":"MAYBE"}`)), "id", "exp-1")
			rec := httptest.NewRecorder()

			h.Decide(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestManagerHandler_PendingAndList(t *testing.T) {
	var listFilter string
	h := NewManagerHandler(&reviewServiceStub{
		pendingFn: func(context.Context, domain.Principal) ([]*domain.Expense, error) {
			return []*domain.Expense{sampleExpense("exp-1", domain.ExpenseStatusPending)}, nil
		},
		listFn: func(_ context.Context, _ domain.Principal, status string) ([]*domain.Expense, error) {
			listFilter = status
			return nil, nil
		},
	}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Pending(rec, asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), mary))

	var resp dto.ExpenseListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Expenses) != 1 || resp.Expenses[0].ID != "exp-1" {
		t.Fatalf("unexpected pending list %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.List(rec, asPrincipal(httptest.NewRequest(http.MethodGet, "/?status=bogus", nil), mary))
	if rec.Code != http.StatusOK || listFilter != "bogus" {
		t.Fatalf("unexpected list result %d filter=%q", rec.Code, listFilter)
	}
}

func TestManagerHandler_LatestDecision(t *testing.T) {
	approval := &domain.Approval{ID: "ap-1", Decision: domain.DecisionApproved}
	var returned *domain.Approval
	h := NewManagerHandler(&reviewServiceStub{
		latestFn: func(context.Context, domain.Principal, string) (*domain.Approval, error) {
			return returned, nil
		},
	}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.LatestDecision(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "exp-1"))
	if got := rec.Body.String(); got != "{\"approval\":null}\n" {
		t.Fatalf("expected null approval, got %q", got)
	}

	returned = approval
	rec = httptest.NewRecorder()
	h.LatestDecision(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "exp-1"))

	var resp dto.LatestDecisionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Approval == nil || resp.Approval.ID != "ap-1" {
		t.Fatalf("unexpected latest decision %+v", resp)
	}
}

func TestManagerHandler_MyDecisions(t *testing.T) {
	h := NewManagerHandler(&reviewServiceStub{
		decisionsFn: func(_ context.Context, p domain.Principal) ([]*domain.Approval, error) {
			return []*domain.Approval{{ID: "ap-1", ApproverID: p.ID}}, nil
		},
	}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.MyDecisions(rec, asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), mary))

	var resp dto.ApprovalListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Approvals) != 1 || resp.Approvals[0].ApproverID != mary.ID {
		t.Fatalf("unexpected decisions %+v", resp)
	}
}
