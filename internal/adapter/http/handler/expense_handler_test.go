package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goexpense/internal/adapter/http/dto"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

var (
	jane = domain.Principal{ID: "u-jane", Role: domain.RoleEmployee}
	mary = domain.Principal{ID: "u-mary", Role: domain.RoleManager}
)

type expenseServiceStub struct {
	submitFn  func(ctx context.Context, p domain.Principal, input usecase.SubmitExpenseInput) (*domain.Expense, error)
	getFn     func(ctx context.Context, p domain.Principal, id string) (*domain.Expense, error)
	historyFn func(ctx context.Context, p domain.Principal, id string) (*domain.Expense, []*domain.Approval, error)
	listFn    func(ctx context.Context, p domain.Principal, status string) ([]*domain.Expense, error)
}

func (s *expenseServiceStub) Submit(ctx context.Context, p domain.Principal, input usecase.SubmitExpenseInput) (*domain.Expense, error) {
	return s.submitFn(ctx, p, input)
}

func (s *expenseServiceStub) GetExpense(ctx context.Context, p domain.Principal, id string) (*domain.Expense, error) {
	return s.getFn(ctx, p, id)
}

func (s *expenseServiceStub) GetHistory(ctx context.Context, p domain.Principal, id string) (*domain.Expense, []*domain.Approval, error) {
	return s.historyFn(ctx, p, id)
}

func (s *expenseServiceStub) ListOwn(ctx context.Context, p domain.Principal, status string) ([]*domain.Expense, error) {
	return s.listFn(ctx, p, status)
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asPrincipal(r *http.Request, p domain.Principal) *http.Request {
	return r.WithContext(domain.WithPrincipal(r.Context(), p))
}

func sampleExpense(id string, status domain.ExpenseStatus) *domain.Expense {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Expense{
		ID:        id,
		OwnerID:   jane.ID,
		Title:     "Laptop",
		Amount:    decimal.RequireFromString("1200"),
		Category:  "Equipment",
		Date:      time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestExpenseHandler_Submit_Success(t *testing.T) {
	var (
		captured  usecase.SubmitExpenseInput
		submitter domain.Principal
	)
	h := NewExpenseHandler(&expenseServiceStub{
		submitFn: func(_ context.Context, p domain.Principal, input usecase.SubmitExpenseInput) (*domain.Expense, error) {
			captured, submitter = input, p
			return sampleExpense("exp-1", domain.ExpenseStatusPending), nil
		},
	}, zerolog.Nop())

	body := `{"title":"Laptop","amount":1200,"category":"Equipment","date":"2024-02-28","receipt_url":"r-1"}`
	req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewBufferString(body)), jane)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if submitter != jane {
		t.Fatalf("expected principal from context, got %+v", submitter)
	}
	if captured.Amount != "1200" || captured.ReceiptRef == nil || *captured.ReceiptRef != "r-1" {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.SubmitExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Expense submitted successfully" || resp.Expense.Status != "PENDING" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestExpenseHandler_Submit_InvalidJSON(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{
		submitFn: func(context.Context, domain.Principal, usecase.SubmitExpenseInput) (*domain.Expense, error) {
			t.Fatal("Submit should not be called for invalid payload")
			return nil, nil
		},
	}, zerolog.Nop())

	req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewBufferString("{invalid json")), jane)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExpenseHandler_Submit_MapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"negative amount", domain.NewValidationError("amount", "amount must be positive"), http.StatusBadRequest},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"unknown principal", domain.ErrUnknownPrincipal, http.StatusForbidden},
		{"store failure", domain.Internal("submit", errors.New("db error")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewExpenseHandler(&expenseServiceStub{
				submitFn: func(context.Context, domain.Principal, usecase.SubmitExpenseInput) (*domain.Expense, error) {
					return nil, tt.err
				},
			}, zerolog.Nop())

			body := `{"title":"Lunch","amount":-5,"category":"Other","date":"2024-02-28"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()

			h.Submit(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestExpenseHandler_ListMine_PassesFilter(t *testing.T) {
	var gotFilter string
	h := NewExpenseHandler(&expenseServiceStub{
		listFn: func(_ context.Context, _ domain.Principal, status string) ([]*domain.Expense, error) {
			gotFilter = status
			return []*domain.Expense{}, nil
		},
	}, zerolog.Nop())

	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/expenses/my?status=APPROVED", nil), jane)
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	if rec.Code != http.StatusOK || gotFilter != "APPROVED" {
		t.Fatalf("unexpected result %d filter=%q", rec.Code, gotFilter)
	}
	if got := rec.Body.String(); got != "{\"expenses\":[]}\n" {
		t.Fatalf("expected empty list envelope, got %q", got)
	}
}

func TestExpenseHandler_Get(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{
		getFn: func(_ context.Context, _ domain.Principal, id string) (*domain.Expense, error) {
			if id != "exp-1" {
				t.Fatalf("expected id exp-1, got %s", id)
			}
			return sampleExpense(id, domain.ExpenseStatusPending), nil
		},
	}, zerolog.Nop())

	req := setChiURLParam(asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/expenses/exp-1", nil), jane), "id", "exp-1")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	var resp dto.ExpenseEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Expense.ID != "exp-1" {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
}

func TestExpenseHandler_Get_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrExpenseNotFound, http.StatusNotFound},
		{domain.ErrNotOwner, http.StatusForbidden},
	}

	for _, tt := range tests {
		h := NewExpenseHandler(&expenseServiceStub{
			getFn: func(context.Context, domain.Principal, string) (*domain.Expense, error) { return nil, tt.err },
		}, zerolog.Nop())

		req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/expenses/x", nil), "id", "x")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		if rec.Code != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
	}
}

func TestExpenseHandler_History(t *testing.T) {
	decided := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	h := NewExpenseHandler(&expenseServiceStub{
		historyFn: func(context.Context, domain.Principal, string) (*domain.Expense, []*domain.Approval, error) {
			return sampleExpense("exp-1", domain.ExpenseStatusApproved), []*domain.Approval{{
				ID: "ap-1", ExpenseID: "exp-1", ApproverID: mary.ID, Decision: domain.DecisionApproved, DecidedAt: decided,
			}}, nil
		},
	}, zerolog.Nop())

	req := setChiURLParam(asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), jane), "id", "exp-1")
	rec := httptest.NewRecorder()

	h.History(rec, req)

	var resp dto.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Approvals) != 1 || resp.Approvals[0].Decision != "APPROVED" || resp.Expense.Status != "APPROVED" {
		t.Fatalf("unexpected history %+v", resp)
	}
}

func TestExpenseHandler_Categories(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{}, zerolog.Nop())
	rec := httptest.NewRecorder()

	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	var resp dto.CategoriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != len(domain.Categories) {
		t.Fatalf("expected %d categories, got %v", len(domain.Categories), resp.Categories)
	}
}
