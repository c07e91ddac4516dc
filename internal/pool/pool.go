// Package pool bounds concurrent read access to an index with a fixed set of
// reusable searcher slots. Acquire blocks when every slot is checked out, so
// load past the cap turns into backpressure instead of failures.
package pool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"pooldex/internal/index"
)

// Slot wraps one searcher. A slot is either idle in its pool or checked out
// to exactly one request; the pool enforces both.
type Slot struct {
	pool     *Pool
	searcher *index.Searcher
	out      bool
}

// Searcher returns the slot's searcher. It is non-nil and refreshed for any
// slot handed out by Acquire.
func (s *Slot) Searcher() *index.Searcher {
	return s.searcher
}

// Pool is a bounded LIFO collection of slots. The last released slot is the
// next one handed out, so a hot, already-refreshed searcher gets reused.
type Pool struct {
	idx *index.Index
	sem *semaphore.Weighted
	cap int

	mu   sync.Mutex
	idle []*Slot
}

// New builds a pool of max slots. The first min slots are left unrealized
// and materialize their searcher on first acquire; the remaining max-min are
// realized eagerly. Which slots are eager is a seeding policy only - every
// slot behaves identically once realized.
func New(idx *index.Index, min, max int) (*Pool, error) {
	if max < 1 {
		return nil, fmt.Errorf("pool: max must be >= 1, got %d", max)
	}
	if min < 0 || min > max {
		return nil, fmt.Errorf("pool: min must be in [0, %d], got %d", max, min)
	}

	p := &Pool{
		idx: idx,
		sem: semaphore.NewWeighted(int64(max)),
		cap: max,
	}
	for i := 0; i < min; i++ {
		p.idle = append(p.idle, &Slot{pool: p})
	}
	for i := 0; i < max-min; i++ {
		s := index.NewSearcher(idx)
		if err := s.Refresh(); err != nil {
			_ = p.Close()
			return nil, err
		}
		p.idle = append(p.idle, &Slot{pool: p, searcher: s})
	}
	return p, nil
}

// Acquire pops the most recently released slot, blocking while all slots are
// checked out. The wait is interruptible through ctx and an interrupted wait
// never consumes capacity. The returned slot's searcher is materialized and
// refreshed to the latest committed generation.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	n := len(p.idle)
	slot := p.idle[n-1]
	p.idle = p.idle[:n-1]
	slot.out = true
	p.mu.Unlock()

	if slot.searcher == nil {
		slot.searcher = index.NewSearcher(p.idx)
	}
	if err := slot.searcher.Refresh(); err != nil {
		p.Release(slot)
		return nil, err
	}
	return slot, nil
}

// Release puts a slot back on top of the pool. It never blocks. Releasing a
// slot twice, or a slot from another pool, is a caller bug and panics.
func (p *Pool) Release(slot *Slot) {
	if slot == nil || slot.pool != p {
		panic("pool: release of slot not owned by this pool")
	}
	p.mu.Lock()
	if !slot.out {
		p.mu.Unlock()
		panic("pool: slot released twice")
	}
	slot.out = false
	p.idle = append(p.idle, slot)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Stats returns the idle slot count and the fixed capacity. Idle plus
// checked-out always equals capacity.
func (p *Pool) Stats() (idle, capacity int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), p.cap
}

// Close releases the searchers of all idle slots. Checked-out slots are the
// responsibility of the requests holding them; Close is meant for shutdown,
// after in-flight requests have drained.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, s := range p.idle {
		if s.searcher == nil {
			continue
		}
		if err := s.searcher.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
