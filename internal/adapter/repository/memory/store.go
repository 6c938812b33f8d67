// Package memory is a process-local storage backend with the same
// transactional guarantees as the SQL backends. State is lost on restart.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

var errTxDone = errors.New("transaction already finished")

// Store holds all tables. Committed state is guarded by mu; expense rows
// are additionally locked for the lifetime of a transaction.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	emails    map[string]string
	expenses  map[string]*domain.Expense
	approvals []*domain.Approval
	outbox    []*domain.OutboxEvent

	rowLocks *rowLocks
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		emails:   make(map[string]string),
		expenses: make(map[string]*domain.Expense),
		rowLocks: newRowLocks(),
	}
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(_ context.Context) (usecase.Transaction, error) {
	return &Tx{store: m.store}, nil
}

// Tx stages writes and applies them atomically on Commit.
type Tx struct {
	store  *Store
	mu     sync.Mutex
	writes []func(*Store)
	held   []func()
	done   bool
}

func (t *Tx) stage(write func(*Store)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}
	t.writes = append(t.writes, write)
	return nil
}

// hold keeps a row lock until the transaction ends.
func (t *Tx) hold(release func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		release()
		return errTxDone
	}
	t.held = append(t.held, release)
	return nil
}

// Commit applies staged writes and releases row locks.
func (t *Tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}

	t.store.mu.Lock()
	for _, write := range t.writes {
		write(t.store)
	}
	t.store.mu.Unlock()

	t.finish()
	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.writes = nil
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i]()
	}
	t.held = nil
}

func asTx(tx usecase.Transaction) *Tx {
	return tx.(*Tx)
}

// rowLocks hands out one exclusive lock per key. Waiting honors context cancellation.
type rowLocks struct {
	mu    sync.Mutex
	locks map[string]*rowLock
}

type rowLock struct {
	ch   chan struct{}
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{locks: make(map[string]*rowLock)}
}

func (r *rowLocks) acquire(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &rowLock{ch: make(chan struct{}, 1)}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			r.unref(key, l)
		}, nil
	case <-ctx.Done():
		r.unref(key, l)
		return nil, ctx.Err()
	}
}

func (r *rowLocks) unref(key string, l *rowLock) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
