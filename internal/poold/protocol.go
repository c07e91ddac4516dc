package poold

import (
	"encoding/json"

	"pooldex/internal/index"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type SearchParams struct {
	Q      string `json:"q"`
	Field  string `json:"field,omitempty"`
	Exact  bool   `json:"exact,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type SearchResult struct {
	Total uint64      `json:"total"`
	Hits  []index.Hit `json:"hits"`
}

type Doc struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type PutParams struct {
	Docs []Doc `json:"docs"`
	// Commit applies the buffered docs before the response; otherwise they
	// are discarded at request teardown.
	Commit bool `json:"commit,omitempty"`
}

type DeleteParams struct {
	IDs    []string `json:"ids"`
	Commit bool     `json:"commit,omitempty"`
}

type MutateResult struct {
	Count     int  `json:"count"`
	Committed bool `json:"committed"`
}

type StatusResult struct {
	Index      string `json:"index"`
	Name       string `json:"name,omitempty"`
	UUID       string `json:"uuid"`
	Docs       uint64 `json:"docs"`
	Generation uint64 `json:"generation"`
	PoolIdle   int    `json:"pool_idle"`
	PoolCap    int    `json:"pool_cap"`
}

type IngestStartParams struct {
	Dir string `json:"dir"`
}

type IngestStatusResult struct {
	Running   bool   `json:"running"`
	Dir       string `json:"dir,omitempty"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
}
