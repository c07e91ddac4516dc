package poold

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"

	"pooldex/internal/engine"
	"pooldex/internal/version"
)

type Options struct {
	Listen string
}

// Server speaks JSON-RPC 2.0 over newline-delimited JSON on TCP. Every
// dispatched request gets its own engine scope, torn down when the response
// has been produced or the handler failed - that teardown is what returns the
// request's searcher to the pool.
type Server struct {
	opts Options
	h    *Handlers

	mu        sync.Mutex
	listener  net.Listener
	closeOnce sync.Once
	closed    chan struct{}
}

func NewServer(eng *engine.Engine, opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:7461"
	}
	return &Server{
		opts:   opts,
		h:      NewHandlers(eng),
		closed: make(chan struct{}),
	}
}

func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	s.h.stopIngest()

	if ln == nil {
		return nil
	}
	return ln.Close()
}

// StartIngest begins ingesting from dir, for config-driven startup.
func (s *Server) StartIngest(dir string) (IngestStatusResult, error) {
	return s.h.IngestStart(IngestStartParams{Dir: dir})
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReader(conn))
	enc := json.NewEncoder(conn)

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if s.isClosed() {
				return
			}
			// Malformed input or peer gone; either way this connection
			// is done.
			return
		}

		if len(req.ID) == 0 {
			// Notification: no response.
			_ = s.dispatch(req)
			continue
		}

		resp := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		resp.Error = &ErrorObject{Code: -32600, Message: "invalid jsonrpc version"}
		return resp
	}

	scope := s.h.eng.NewScope()
	defer scope.Teardown()
	ctx := context.Background()

	switch req.Method {
	case "ping":
		resp.Result = "pong"
	case "version":
		resp.Result = version.String()
	case "status":
		out, err := s.h.Status(ctx, scope)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = out
	case "search":
		var p SearchParams
		if err := decodeParams(req.Params, &p); err != nil {
			resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
			return resp
		}
		if strings.TrimSpace(p.Q) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "q is required"}
			return resp
		}
		out, err := s.h.Search(ctx, scope, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = out
	case "index.put":
		var p PutParams
		if err := decodeParams(req.Params, &p); err != nil {
			resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
			return resp
		}
		if len(p.Docs) == 0 {
			resp.Error = &ErrorObject{Code: -32602, Message: "docs is required"}
			return resp
		}
		out, err := s.h.Put(scope, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = out
	case "index.delete":
		var p DeleteParams
		if err := decodeParams(req.Params, &p); err != nil {
			resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
			return resp
		}
		if len(p.IDs) == 0 {
			resp.Error = &ErrorObject{Code: -32602, Message: "ids is required"}
			return resp
		}
		out, err := s.h.Delete(scope, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = out
	case "ingest.start":
		var p IngestStartParams
		if err := decodeParams(req.Params, &p); err != nil {
			resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
			return resp
		}
		if strings.TrimSpace(p.Dir) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "dir is required"}
			return resp
		}
		out, err := s.h.IngestStart(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = out
	case "ingest.stop":
		resp.Result = s.h.IngestStop()
	case "ingest.status":
		resp.Result = s.h.IngestStatus()
	default:
		resp.Error = &ErrorObject{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
	return resp
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
