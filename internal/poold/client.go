package poold

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error (%d): %s", e.Code, e.Message) }

// Client is a minimal line-protocol client for the daemon, shared by the CLI
// and the tests.
type Client struct {
	conn   net.Conn
	dec    *json.Decoder
	enc    *json.Encoder
	nextID atomic.Int64
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		dec:  json.NewDecoder(bufio.NewReader(conn)),
		enc:  json.NewEncoder(conn),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

func (c *Client) call(method string, params any, out any) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("client is not connected")
	}
	id := c.nextID.Add(1)
	req := Request{JSONRPC: "2.0", Method: method, ID: json.RawMessage(fmt.Sprintf("%d", id))}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = b
	}

	if err := c.enc.Encode(req); err != nil {
		return err
	}

	var resp rawResponse
	if err := c.dec.Decode(&resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (c *Client) Ping() error {
	var out string
	if err := c.call("ping", nil, &out); err != nil {
		return err
	}
	if out != "pong" {
		return fmt.Errorf("unexpected ping result: %q", out)
	}
	return nil
}

func (c *Client) Version() (string, error) {
	var out string
	if err := c.call("version", nil, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) Status() (StatusResult, error) {
	var out StatusResult
	if err := c.call("status", nil, &out); err != nil {
		return StatusResult{}, err
	}
	return out, nil
}

func (c *Client) Search(p SearchParams) (SearchResult, error) {
	var out SearchResult
	if err := c.call("search", p, &out); err != nil {
		return SearchResult{}, err
	}
	return out, nil
}

func (c *Client) Put(p PutParams) (MutateResult, error) {
	var out MutateResult
	if err := c.call("index.put", p, &out); err != nil {
		return MutateResult{}, err
	}
	return out, nil
}

func (c *Client) Delete(p DeleteParams) (MutateResult, error) {
	var out MutateResult
	if err := c.call("index.delete", p, &out); err != nil {
		return MutateResult{}, err
	}
	return out, nil
}

func (c *Client) IngestStart(dir string) (IngestStatusResult, error) {
	var out IngestStatusResult
	if err := c.call("ingest.start", IngestStartParams{Dir: dir}, &out); err != nil {
		return IngestStatusResult{}, err
	}
	return out, nil
}

func (c *Client) IngestStop() (IngestStatusResult, error) {
	var out IngestStatusResult
	if err := c.call("ingest.stop", nil, &out); err != nil {
		return IngestStatusResult{}, err
	}
	return out, nil
}

func (c *Client) IngestStatus() (IngestStatusResult, error) {
	var out IngestStatusResult
	if err := c.call("ingest.status", nil, &out); err != nil {
		return IngestStatusResult{}, err
	}
	return out, nil
}
