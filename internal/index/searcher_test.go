package index

import (
	"context"
	"testing"
)

func TestSearcherRefreshObservesCommit(t *testing.T) {
	idx := mustCreate(t, t.TempDir(), "", false)
	defer idx.Close()

	s := NewSearcher(idx)
	if s.Realized() {
		t.Fatalf("new searcher must not be realized")
	}
	if err := s.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer s.Close()
	if !s.Realized() {
		t.Fatalf("refresh must realize the searcher")
	}

	n, err := s.DocCount()
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty index, got %d", n)
	}

	batch := idx.NewBatch()
	if err := batch.Index("d1", map[string]any{"title": "hello world", "tag": "greeting"}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if err := idx.Apply(batch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// The old snapshot stays point-in-time until the next refresh.
	n, err = s.DocCount()
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if n != 0 {
		t.Fatalf("stale snapshot grew: %d", n)
	}

	if err := s.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	n, err = s.DocCount()
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 doc after refresh, got %d", n)
	}

	res, err := s.Search(context.Background(), Query{Text: "hello", Field: "title"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "d1" {
		t.Fatalf("unexpected hits: %+v", res.Hits)
	}
	if got := res.Hits[0].Fields["title"]; got != "hello world" {
		t.Fatalf("stored title=%v", got)
	}
}

func TestSearcherRefreshIdempotent(t *testing.T) {
	idx := mustCreate(t, t.TempDir(), "", false)
	defer idx.Close()

	s := NewSearcher(idx)
	if err := s.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer s.Close()

	gen := s.Generation()
	for i := 0; i < 3; i++ {
		if err := s.Refresh(); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if s.Generation() != gen {
		t.Fatalf("generation moved without commits: %d != %d", s.Generation(), gen)
	}
}

func TestSearcherExactTermQuery(t *testing.T) {
	idx := mustCreate(t, t.TempDir(), "", false)
	defer idx.Close()

	batch := idx.NewBatch()
	for id, tag := range map[string]string{"a": "go", "b": "golang"} {
		if err := batch.Index(id, map[string]any{"title": "post", "tag": tag}); err != nil {
			t.Fatalf("batch: %v", err)
		}
	}
	if err := idx.Apply(batch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	s := NewSearcher(idx)
	if err := s.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer s.Close()

	res, err := s.Search(context.Background(), Query{Text: "go", Field: "tag", Exact: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "a" {
		t.Fatalf("term query matched: %+v", res.Hits)
	}
}

func TestSearcherRejectsEmptyQuery(t *testing.T) {
	idx := mustCreate(t, t.TempDir(), "", false)
	defer idx.Close()

	s := NewSearcher(idx)
	if err := s.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer s.Close()

	if _, err := s.Search(context.Background(), Query{Text: "  "}); err == nil {
		t.Fatalf("expected empty query to fail")
	}
}
