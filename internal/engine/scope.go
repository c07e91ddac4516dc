package engine

import (
	"context"
	"errors"
	"sync"

	"pooldex/internal/index"
	"pooldex/internal/pool"
)

// ErrScopeDone is returned when a scope is used after Teardown.
var ErrScopeDone = errors.New("request scope is torn down")

// Scope binds at most one pooled searcher and at most one writer to a single
// request. Both accessors are memoized: however many times a handler asks,
// the request sees one searcher and one writer. Teardown must run exactly
// once when the request ends, whether it succeeded or failed.
type Scope struct {
	eng *Engine

	mu     sync.Mutex
	slot   *pool.Slot
	pl     *pool.Pool
	writer *Writer
	done   bool
}

// Searcher returns the request's searcher, acquiring a pool slot on first
// call. The acquire blocks under pool exhaustion and honors ctx cancellation;
// a canceled wait leaves the scope unbound so Teardown stays a no-op for the
// searcher track.
func (s *Scope) Searcher(ctx context.Context) (*index.Searcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, ErrScopeDone
	}
	if s.slot == nil {
		p, err := s.eng.Pool()
		if err != nil {
			return nil, err
		}
		slot, err := p.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		s.pl = p
		s.slot = slot
	}
	return s.slot.Searcher(), nil
}

// Writer returns the request's writer, creating it on first call.
func (s *Scope) Writer() (*Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, ErrScopeDone
	}
	if s.writer == nil {
		s.writer = s.eng.NewWriter()
	}
	return s.writer, nil
}

// Teardown releases the searcher slot back to the pool, if one was acquired,
// and cancels a writer that was neither committed nor canceled, so buffered
// writes are discarded deterministically instead of leaking. It never fails
// when nothing was acquired, and calling it more than once is a no-op.
func (s *Scope) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	if s.slot != nil {
		s.pl.Release(s.slot)
		s.slot = nil
		s.pl = nil
	}
	if s.writer != nil {
		s.writer.Cancel()
		s.writer = nil
	}
}
