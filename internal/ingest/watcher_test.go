package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pooldex/internal/engine"
	"pooldex/internal/index"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	schema := index.Schema{Fields: map[string]index.Field{
		"title": {Type: index.FieldText},
	}}
	idx, err := index.Create(t.TempDir(), "", schema, false)
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	eng := engine.New(idx, engine.Options{})
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestIngestsDroppedFile(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()

	ing, err := Start(eng, dir, Options{FlushInterval: 25 * time.Millisecond})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(ing.Stop)

	path := filepath.Join(dir, "doc.json")
	body := `{"id": "d1", "fields": {"title": "dropped into the watch dir"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool { return ing.Processed() == 1 })

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("processed file must be removed, stat err=%v", err)
	}

	scope := eng.NewScope()
	defer scope.Teardown()
	s, err := scope.Searcher(context.Background())
	if err != nil {
		t.Fatalf("searcher: %v", err)
	}
	res, err := s.Search(context.Background(), index.Query{Text: "dropped", Field: "title"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "d1" {
		t.Fatalf("hits: %+v", res.Hits)
	}
}

func TestIngestsPreexistingFilesAndArrays(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()

	body := `[{"fields": {"title": "one"}}, {"fields": {"title": "two"}}]`
	if err := os.WriteFile(filepath.Join(dir, "batch.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ing, err := Start(eng, dir, Options{FlushInterval: 25 * time.Millisecond})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(ing.Stop)

	waitFor(t, 5*time.Second, func() bool { return ing.Processed() == 1 })

	scope := eng.NewScope()
	defer scope.Teardown()
	s, err := scope.Searcher(context.Background())
	if err != nil {
		t.Fatalf("searcher: %v", err)
	}
	n, err := s.DocCount()
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if n != 2 {
		t.Fatalf("docs=%d, want 2", n)
	}
}

func TestMalformedFileCountsAsFailed(t *testing.T) {
	eng := newTestEngine(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ing, err := Start(eng, dir, Options{FlushInterval: 25 * time.Millisecond})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(ing.Stop)

	waitFor(t, 5*time.Second, func() bool { return ing.Failed() == 1 })

	// Failed files stay put for inspection.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("failed file must remain: %v", err)
	}
}

func TestStartRejectsNonDirectory(t *testing.T) {
	eng := newTestEngine(t)

	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Start(eng, file, Options{}); err == nil {
		t.Fatalf("expected non-directory to fail")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
