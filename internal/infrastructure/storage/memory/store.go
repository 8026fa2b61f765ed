// Package memory is an in-process implementation of every ledger repository
// and of tx.Manager. A transaction holds the store-wide write lock for its
// whole duration and restores a snapshot when it fails, which gives the same
// all-or-nothing and row-locking guarantees the services rely on from PostgreSQL.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)

// ErrReadOnly is returned by writes attempted inside ReadOnly.
var ErrReadOnly = errors.New("memory: write in read-only transaction")

// Store holds all ledger state.
type Store struct {
	mu sync.RWMutex

	products   map[id.ID]product.Product
	receptions map[id.ID]reception.Reception
	batches    map[id.ID]batch.Batch
	changes    []batch.Change
	writeOffs  []writeoff.WriteOff
	sessions   []reconciliation.Session
}

// New creates an empty store.
func New() *Store {
	return &Store{
		products:   make(map[id.ID]product.Product),
		receptions: make(map[id.ID]reception.Reception),
		batches:    make(map[id.ID]batch.Batch),
	}
}

type txKey struct{}

type txState struct{ readOnly bool }

func currentTx(ctx context.Context) (txState, bool) {
	st, ok := ctx.Value(txKey{}).(txState)
	return st, ok
}

func inTx(ctx context.Context) bool {
	_, ok := currentTx(ctx)
	return ok
}

type snapshot struct {
	products   map[id.ID]product.Product
	receptions map[id.ID]reception.Reception
	batches    map[id.ID]batch.Batch
	changes    []batch.Change
	writeOffs  []writeoff.WriteOff
	sessions   []reconciliation.Session
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		products:   maps.Clone(s.products),
		receptions: maps.Clone(s.receptions),
		batches:    maps.Clone(s.batches),
		changes:    slices.Clone(s.changes),
		writeOffs:  slices.Clone(s.writeOffs),
		sessions:   slices.Clone(s.sessions),
	}
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.receptions = snap.receptions
	s.batches = snap.batches
	s.changes = snap.changes
	s.writeOffs = snap.writeOffs
	s.sessions = snap.sessions
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, txState{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager. fn sees a stable view under the
// shared lock and any write inside it fails with ErrReadOnly.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, txState{readOnly: true}))
}

func (s *Store) read(ctx context.Context, fn func()) {
	if inTx(ctx) {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if st, ok := currentTx(ctx); ok {
		if st.readOnly {
			return ErrReadOnly
		}
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Ping always succeeds; the store lives in process memory.
func (s *Store) Ping(context.Context) error { return nil }

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Receptions returns the reception repository.
func (s *Store) Receptions() *ReceptionRepo { return &ReceptionRepo{s: s} }

// Batches returns the batch repository.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{s: s} }

// WriteOffs returns the write-off repository.
func (s *Store) WriteOffs() *WriteOffRepo { return &WriteOffRepo{s: s} }

// Journal returns the reconciliation journal.
func (s *Store) Journal() *JournalRepo { return &JournalRepo{s: s} }
