package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/domain"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn     func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, key)
	}
	return nil
}

// mapStore behaves like the Redis store: the first claim wins and holds a
// marker until the response is stored or released.
type mapStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMapStore() *mapStore { return &mapStore{values: map[string][]byte{}} }

func (s *mapStore) CheckAndSet(_ context.Context, key string, _ []byte, _ time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return true, v, nil
	}
	s.values[key] = []byte("processing")
	return false, nil, nil
}

func (s *mapStore) Update(_ context.Context, key string, response []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = response
	return nil
}

func (s *mapStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func newIdempotentRequest(method, key string, p domain.Principal) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/expenses", bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req.WithContext(domain.WithPrincipal(req.Context(), p))
}

var jane = domain.Principal{ID: "u-jane", Role: domain.RoleEmployee}

func TestIdempotencyMiddleware_StoreErrorIs500(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	var logs bytes.Buffer
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.New(&logs))

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPost, "key-err", jane))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if !strings.Contains(logs.String(), "idempotency check failed") || !strings.Contains(logs.String(), jane.ID) {
		t.Fatalf("expected store failure logged with principal, got %s", logs.String())
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var updated, released bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			released = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPost, "key-fail", jane))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if !released {
		t.Fatalf("expected key to be released for retry")
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodGet, "key", jane))

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_RejectsLongKey(t *testing.T) {
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{}, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPost, strings.Repeat("k", 300), jane))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_InFlightIsConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return true, []byte("processing"), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run while the first request is in flight")
	})).ServeHTTP(rr, newIdempotentRequest(http.MethodPost, "key", jane))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysStatusAndBody(t *testing.T) {
	store := newMapStore()
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, newIdempotentRequest(http.MethodPost, "key-456", jane))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, newIdempotentRequest(http.MethodPost, "key-456", jane))

	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
	body, _ := io.ReadAll(second.Body)
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected replayed body: %s", body)
	}
	if first.Header().Get(IdempotencyReplayHeader) != "" {
		t.Fatalf("first response must not be marked as replay")
	}
}

func TestIdempotencyMiddleware_KeysAreScopedToPrincipal(t *testing.T) {
	store := newMapStore()
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	var seen []string
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, domain.PrincipalFromContext(r.Context()).ID)
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPost, "shared", jane))
	h.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPost, "shared", domain.Principal{ID: "u-bob", Role: domain.RoleEmployee}))

	if len(seen) != 2 {
		t.Fatalf("expected both principals to reach the handler, got %v", seen)
	}
}

func TestIdempotencyMiddleware_StoresEnvelope(t *testing.T) {
	var stored []byte
	var ttlSeen time.Duration
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			stored = append([]byte(nil), response...)
			ttlSeen = ttl
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(httptest.NewRecorder(), newIdempotentRequest(http.MethodPost, "key", jane))

	var env storedResponse
	if err := json.Unmarshal(stored, &env); err != nil {
		t.Fatalf("stored value is not an envelope: %v", err)
	}
	if env.Status != http.StatusOK || string(env.Body) != `{"ok":true}` {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if ttlSeen != defaultIdempotencyTTL {
		t.Fatalf("expected default ttl, got %s", ttlSeen)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := newMapStore()
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	h := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	})))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, newIdempotentRequest(http.MethodPost, "key-panic", jane))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", first.Code)
	}

	retry := httptest.NewRecorder()
	h.ServeHTTP(retry, newIdempotentRequest(http.MethodPost, "key-panic", jane))
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected retry to reach the handler, got %d", retry.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler twice, got %d", calls)
	}
}
