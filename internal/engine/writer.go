package engine

import (
	"errors"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// ErrWriterClosed is returned by writer operations after Commit or Cancel.
var ErrWriterClosed = errors.New("writer is committed or canceled")

type writerState int

const (
	writerOpen writerState = iota
	writerCommitted
	writerCanceled
)

// Writer buffers document mutations for one request. Nothing touches the
// index until Commit enqueues the buffer on the engine's commit channel; the
// background committer then takes the index's exclusive lock and flushes, so
// the request goroutine never waits on lock contention. Writers from
// concurrent requests commit in FIFO enqueue order.
type Writer struct {
	mu    sync.Mutex
	eng   *Engine
	batch *bleve.Batch
	state writerState
}

// NewWriter returns a fresh writer over the engine's index. Each request gets
// its own; writers are not pooled and not shared.
func (e *Engine) NewWriter() *Writer {
	return &Writer{eng: e, batch: e.idx.NewBatch()}
}

// Put buffers an add-or-replace of the document with the given id.
func (w *Writer) Put(id string, fields map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != writerOpen {
		return ErrWriterClosed
	}
	return w.batch.Index(id, fields)
}

// Delete buffers removal of the document with the given id.
func (w *Writer) Delete(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != writerOpen {
		return ErrWriterClosed
	}
	w.batch.Delete(id)
	return nil
}

// Pending returns the number of buffered operations.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.batch == nil {
		return 0
	}
	return w.batch.Size()
}

// Commit hands the buffered operations to the background committer and closes
// the writer. The returned channel receives exactly one error once the commit
// has been applied; callers may ignore it for fire-and-forget writes or
// receive from it to wait for durability.
func (w *Writer) Commit() <-chan error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != writerOpen {
		done := make(chan error, 1)
		done <- ErrWriterClosed
		return done
	}
	w.state = writerCommitted
	batch := w.batch
	w.batch = nil
	return w.eng.enqueue(batch)
}

// Cancel discards the buffered operations without touching the index and
// closes the writer. Canceling twice, or after Commit, is a no-op.
func (w *Writer) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != writerOpen {
		return
	}
	w.state = writerCanceled
	w.batch = nil
}
