// Package engine ties one opened index to the machinery requests go through:
// a bounded searcher pool, a serialized background committer, and per-request
// scopes that memoize and clean up resource handles.
package engine

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"pooldex/internal/index"
	"pooldex/internal/pool"
)

// Options bound the searcher pool and size the commit queue.
type Options struct {
	// PoolMin is the number of slots seeded without a materialized
	// searcher. Defaults to 1.
	PoolMin int
	// PoolMax caps concurrent searchers. Defaults to 10.
	PoolMax int
	// CommitQueue is the capacity of the background commit channel.
	// Defaults to 16.
	CommitQueue int
}

func (o Options) withDefaults() Options {
	if o.PoolMin == 0 {
		o.PoolMin = 1
	}
	if o.PoolMax == 0 {
		o.PoolMax = 10
	}
	if o.CommitQueue <= 0 {
		o.CommitQueue = 16
	}
	return o
}

type commitJob struct {
	batch *bleve.Batch
	done  chan error
}

// Engine is the application-level context around one Index. Construct it once
// at startup and pass it to everything that needs the pool or the index; there
// is no ambient registry.
type Engine struct {
	opts Options
	idx  *index.Index

	poolOnce sync.Once
	pool     *pool.Pool
	poolErr  error

	commits chan commitJob
	done    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New starts the background committer and returns the engine. The searcher
// pool is not built until the first searcher access.
func New(idx *index.Index, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:    opts,
		idx:     idx,
		commits: make(chan commitJob, opts.CommitQueue),
		done:    make(chan struct{}),
	}
	e.wg.Add(1)
	go e.runCommitter()
	return e
}

// Index returns the shared index handle.
func (e *Engine) Index() *index.Index {
	return e.idx
}

// Pool returns the searcher pool, building it on first use. Pool construction
// failure is sticky: every later call reports the same error.
func (e *Engine) Pool() (*pool.Pool, error) {
	e.poolOnce.Do(func() {
		e.pool, e.poolErr = pool.New(e.idx, e.opts.PoolMin, e.opts.PoolMax)
	})
	return e.pool, e.poolErr
}

// PoolStats reports (idle, capacity), or (0, 0) if no resource access has
// built the pool yet.
func (e *Engine) PoolStats() (idle, capacity int) {
	if e.pool == nil {
		return 0, 0
	}
	return e.pool.Stats()
}

// NewScope starts a request scope. The caller owns exactly one Teardown.
func (e *Engine) NewScope() *Scope {
	return &Scope{eng: e}
}

// runCommitter is the single goroutine that applies batches. It serializes
// every commit in the process into one FIFO order, keeping index lock
// acquisition off request goroutines.
func (e *Engine) runCommitter() {
	defer e.wg.Done()
	for {
		select {
		case job := <-e.commits:
			job.done <- e.idx.Apply(job.batch)
		case <-e.done:
			// Drain whatever was enqueued before shutdown.
			for {
				select {
				case job := <-e.commits:
					job.done <- e.idx.Apply(job.batch)
				default:
					return
				}
			}
		}
	}
}

// enqueue hands a buffered batch to the committer. The returned channel
// receives exactly one error (nil on success).
func (e *Engine) enqueue(batch *bleve.Batch) <-chan error {
	done := make(chan error, 1)
	select {
	case e.commits <- commitJob{batch: batch, done: done}:
	case <-e.done:
		done <- fmt.Errorf("engine is closed")
	}
	return done
}

// Close stops the committer (draining already-enqueued commits), closes the
// pool's idle searchers, and closes the index.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		if e.pool != nil {
			e.closeErr = e.pool.Close()
		}
		if err := e.idx.Close(); e.closeErr == nil {
			e.closeErr = err
		}
	})
	return e.closeErr
}
