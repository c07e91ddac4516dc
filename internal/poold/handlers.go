package poold

import (
	"context"
	"fmt"
	"sync"

	"pooldex/internal/engine"
	"pooldex/internal/index"
	"pooldex/internal/ingest"
)

// Handlers implement the daemon's methods against one engine. Scoped methods
// take the request's scope; the server owns its teardown.
type Handlers struct {
	eng *engine.Engine

	mu       sync.Mutex
	ingester *ingest.Ingester
}

func NewHandlers(eng *engine.Engine) *Handlers {
	return &Handlers{eng: eng}
}

func (h *Handlers) Status(ctx context.Context, scope *engine.Scope) (StatusResult, error) {
	searcher, err := scope.Searcher(ctx)
	if err != nil {
		return StatusResult{}, err
	}
	docs, err := searcher.DocCount()
	if err != nil {
		return StatusResult{}, err
	}
	idx := h.eng.Index()
	idle, capacity := h.eng.PoolStats()
	return StatusResult{
		Index:      idx.Root(),
		Name:       idx.Name(),
		UUID:       idx.UUID(),
		Docs:       docs,
		Generation: idx.Generation(),
		PoolIdle:   idle,
		PoolCap:    capacity,
	}, nil
}

func (h *Handlers) Search(ctx context.Context, scope *engine.Scope, p SearchParams) (SearchResult, error) {
	searcher, err := scope.Searcher(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	res, err := searcher.Search(ctx, index.Query{
		Text:   p.Q,
		Field:  p.Field,
		Exact:  p.Exact,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Total: res.Total, Hits: res.Hits}, nil
}

func (h *Handlers) Put(scope *engine.Scope, p PutParams) (MutateResult, error) {
	w, err := scope.Writer()
	if err != nil {
		return MutateResult{}, err
	}
	for _, doc := range p.Docs {
		if doc.ID == "" {
			return MutateResult{}, fmt.Errorf("doc id is required")
		}
		if len(doc.Fields) == 0 {
			return MutateResult{}, fmt.Errorf("doc %q has no fields", doc.ID)
		}
		if err := w.Put(doc.ID, doc.Fields); err != nil {
			return MutateResult{}, err
		}
	}
	if !p.Commit {
		return MutateResult{Count: len(p.Docs)}, nil
	}
	if err := <-w.Commit(); err != nil {
		return MutateResult{}, err
	}
	return MutateResult{Count: len(p.Docs), Committed: true}, nil
}

func (h *Handlers) Delete(scope *engine.Scope, p DeleteParams) (MutateResult, error) {
	w, err := scope.Writer()
	if err != nil {
		return MutateResult{}, err
	}
	for _, id := range p.IDs {
		if id == "" {
			return MutateResult{}, fmt.Errorf("doc id is required")
		}
		if err := w.Delete(id); err != nil {
			return MutateResult{}, err
		}
	}
	if !p.Commit {
		return MutateResult{Count: len(p.IDs)}, nil
	}
	if err := <-w.Commit(); err != nil {
		return MutateResult{}, err
	}
	return MutateResult{Count: len(p.IDs), Committed: true}, nil
}

func (h *Handlers) IngestStart(p IngestStartParams) (IngestStatusResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ingester != nil {
		return IngestStatusResult{}, fmt.Errorf("ingest already running on %s", h.ingester.Dir())
	}
	ing, err := ingest.Start(h.eng, p.Dir, ingest.Options{})
	if err != nil {
		return IngestStatusResult{}, err
	}
	h.ingester = ing
	return h.ingestStatusLocked(), nil
}

func (h *Handlers) IngestStop() IngestStatusResult {
	h.mu.Lock()
	ing := h.ingester
	h.ingester = nil
	h.mu.Unlock()

	if ing == nil {
		return IngestStatusResult{}
	}
	ing.Stop()
	return IngestStatusResult{
		Dir:       ing.Dir(),
		Processed: ing.Processed(),
		Failed:    ing.Failed(),
	}
}

func (h *Handlers) IngestStatus() IngestStatusResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ingestStatusLocked()
}

func (h *Handlers) ingestStatusLocked() IngestStatusResult {
	if h.ingester == nil {
		return IngestStatusResult{}
	}
	return IngestStatusResult{
		Running:   true,
		Dir:       h.ingester.Dir(),
		Processed: h.ingester.Processed(),
		Failed:    h.ingester.Failed(),
	}
}

func (h *Handlers) stopIngest() {
	h.mu.Lock()
	ing := h.ingester
	h.ingester = nil
	h.mu.Unlock()
	if ing != nil {
		ing.Stop()
	}
}
