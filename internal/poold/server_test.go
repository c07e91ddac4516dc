package poold

import (
	"errors"
	"testing"
	"time"

	"pooldex/internal/engine"
	"pooldex/internal/index"
)

func newTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	schema := index.Schema{Fields: map[string]index.Field{
		"title": {Type: index.FieldText},
		"tag":   {Type: index.FieldKeyword},
	}}
	idx, err := index.Create(t.TempDir(), "", schema, false)
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	eng := engine.New(idx, engine.Options{PoolMin: 1, PoolMax: 4})

	s := NewServer(eng, Options{Listen: "127.0.0.1:0"})
	go func() { _ = s.Run() }()
	t.Cleanup(func() {
		_ = s.Close()
		_ = eng.Close()
	})

	addr := waitAddr(t, s, 2*time.Second)
	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func waitAddr(t *testing.T, s *Server, timeout time.Duration) string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := s.Addr(); addr != "" {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server did not start listening")
	return ""
}

func TestPingAndVersion(t *testing.T) {
	_, c := newTestServer(t)

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	v, err := c.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v == "" {
		t.Fatalf("empty version")
	}
}

func TestStatusReportsPool(t *testing.T) {
	_, c := newTestServer(t)

	st, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Docs != 0 {
		t.Fatalf("docs=%d", st.Docs)
	}
	if st.PoolCap != 4 {
		t.Fatalf("pool cap=%d", st.PoolCap)
	}
	// The status request itself holds one slot while it reads the count.
	if st.PoolIdle != 3 {
		t.Fatalf("pool idle=%d, want 3", st.PoolIdle)
	}
	if st.UUID == "" {
		t.Fatalf("missing index uuid")
	}
}

func TestPutSearchDelete(t *testing.T) {
	_, c := newTestServer(t)

	put, err := c.Put(PutParams{
		Docs: []Doc{
			{ID: "d1", Fields: map[string]any{"title": "concurrency in practice", "tag": "book"}},
			{ID: "d2", Fields: map[string]any{"title": "cooking for two", "tag": "book"}},
		},
		Commit: true,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.Count != 2 || !put.Committed {
		t.Fatalf("put result: %+v", put)
	}

	res, err := c.Search(SearchParams{Q: "concurrency", Field: "title"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total != 1 || len(res.Hits) != 1 || res.Hits[0].ID != "d1" {
		t.Fatalf("search result: %+v", res)
	}

	del, err := c.Delete(DeleteParams{IDs: []string{"d1"}, Commit: true})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if del.Count != 1 || !del.Committed {
		t.Fatalf("delete result: %+v", del)
	}

	res, err = c.Search(SearchParams{Q: "concurrency", Field: "title"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("deleted doc still found: %+v", res)
	}
}

func TestUncommittedPutIsDiscardedAtTeardown(t *testing.T) {
	_, c := newTestServer(t)

	put, err := c.Put(PutParams{
		Docs:   []Doc{{ID: "ghost", Fields: map[string]any{"title": "never"}}},
		Commit: false,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.Committed {
		t.Fatalf("put without commit flagged committed")
	}

	st, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Docs != 0 {
		t.Fatalf("uncommitted write leaked: %d docs", st.Docs)
	}
}

func TestInvalidRequests(t *testing.T) {
	_, c := newTestServer(t)

	var out any
	err := c.call("no.such.method", nil, &out)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32601 {
		t.Fatalf("expected method-not-found, got %v", err)
	}

	err = c.call("search", SearchParams{Q: "   "}, &out)
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Fatalf("expected invalid-params, got %v", err)
	}

	err = c.call("index.put", PutParams{}, &out)
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Fatalf("expected invalid-params, got %v", err)
	}
}

func TestIngestLifecycleOverRPC(t *testing.T) {
	_, c := newTestServer(t)

	st, err := c.IngestStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Running {
		t.Fatalf("ingester running before start")
	}

	dir := t.TempDir()
	st, err = c.IngestStart(dir)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !st.Running {
		t.Fatalf("ingester not running after start")
	}

	if _, err := c.IngestStart(dir); err == nil {
		t.Fatalf("second start must fail")
	}

	st, err = c.IngestStop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if st.Running {
		t.Fatalf("ingester still running after stop")
	}
}
