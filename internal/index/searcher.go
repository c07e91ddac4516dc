package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	bindex "github.com/blevesearch/bleve_index_api"
)

// Query describes one search against an index.
type Query struct {
	// Text is matched against Field, or against all indexed fields when
	// Field is empty.
	Text  string
	Field string
	// Exact uses a term query instead of the analyzed match query.
	Exact  bool
	Limit  int
	Offset int
}

// Hit is one matching document with its stored fields.
type Hit struct {
	ID     string         `json:"id"`
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Result is the outcome of one Search call.
type Result struct {
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Searcher is a read-only view over an Index. The underlying reader snapshot
// is materialized on the first Refresh and swapped whenever a commit has
// landed since the last one. A Searcher is checked out to one request at a
// time and is not safe for concurrent use.
type Searcher struct {
	idx    *Index
	reader bindex.IndexReader
	gen    uint64
}

// NewSearcher returns an unrealized searcher. Refresh materializes it.
func NewSearcher(idx *Index) *Searcher {
	return &Searcher{idx: idx}
}

// Refresh brings the searcher up to the latest committed generation. It is
// idempotent and cheap when nothing has been committed since the last call.
func (s *Searcher) Refresh() error {
	gen := s.idx.Generation()
	if s.reader != nil && s.gen == gen {
		return nil
	}
	reader, err := s.idx.adv.Reader()
	if err != nil {
		return err
	}
	if s.reader != nil {
		_ = s.reader.Close()
	}
	s.reader = reader
	s.gen = gen
	return nil
}

// Realized reports whether the underlying reader snapshot exists yet.
func (s *Searcher) Realized() bool {
	return s.reader != nil
}

// Generation returns the commit generation the current snapshot reflects.
func (s *Searcher) Generation() uint64 {
	return s.gen
}

// DocCount returns the number of documents in the current snapshot.
func (s *Searcher) DocCount() (uint64, error) {
	if s.reader == nil {
		return 0, fmt.Errorf("searcher is not realized")
	}
	return s.reader.DocCount()
}

// Search runs q and returns hits with their stored fields.
func (s *Searcher) Search(ctx context.Context, q Query) (Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return Result{}, fmt.Errorf("query text is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var bq bquery.Query
	if q.Exact {
		tq := bleve.NewTermQuery(text)
		if q.Field != "" {
			tq.SetField(q.Field)
		}
		bq = tq
	} else {
		mq := bleve.NewMatchQuery(text)
		if q.Field != "" {
			mq.SetField(q.Field)
		}
		bq = mq
	}

	req := bleve.NewSearchRequestOptions(bq, limit, offset, false)
	req.Fields = []string{"*"}

	res, err := s.idx.b.SearchInContext(ctx, req)
	if err != nil {
		return Result{}, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score, Fields: h.Fields})
	}
	return Result{Total: res.Total, Hits: hits}, nil
}

// Close releases the reader snapshot, if one was materialized.
func (s *Searcher) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}
