// Package client is a Go client for the /rpc endpoint of a running
// eqsvg server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/eqsvg/eqsvg/internal/rpc"
	"github.com/eqsvg/eqsvg/internal/store"
	"github.com/google/uuid"
)

// defaultTimeout bounds one round trip to the server.
const defaultTimeout = 30 * time.Second

// Client talks JSON-RPC to an eqsvg server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the server at host:port.
func New(host string, port int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    fmt.Sprintf("http://%s:%d/rpc", host, port),
	}
}

// call sends one RPC request and decodes the result member into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id, err := json.Marshal(uuid.New().String())
	if err != nil {
		return err
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	body, err := json.Marshal(rpc.Request{
		JSONRPC: rpc.Version,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	var resp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *rpc.Error      `json:"error"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return fmt.Errorf("no result in response")
	}
	return json.Unmarshal(resp.Result, out)
}

// Paint converts equation markup to SVG.
func (c *Client) Paint(ctx context.Context, content, format string, inline bool) (string, error) {
	params := map[string]any{"content": content, "format": format, "inline": inline}
	var result struct {
		SVG string `json:"svg"`
	}
	if err := c.call(ctx, "paint", params, &result); err != nil {
		return "", err
	}
	return result.SVG, nil
}

// RenderBitmap submits an SVG document for placeholder bitmap
// rendering. Zero width/height use the server defaults.
func (c *Client) RenderBitmap(ctx context.Context, svg string, width, height uint32) (*store.RenderResult, error) {
	params := map[string]any{
		"content": map[string]string{"svg": svg},
		"width":   width,
		"height":  height,
	}
	var result store.RenderResult
	if err := c.call(ctx, "renderBitmap", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBitmap fetches a previously rendered placeholder bitmap.
func (c *Client) GetBitmap(ctx context.Context, id string) (*store.RenderResult, error) {
	params := map[string]string{"id": id}
	var result store.RenderResult
	if err := c.call(ctx, "getBitmap", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveBitmap fetches a bitmap and writes its bytes to path.
func (c *Client) SaveBitmap(ctx context.Context, id, path string) error {
	result, err := c.GetBitmap(ctx, id)
	if err != nil {
		return err
	}
	return os.WriteFile(path, result.Bitmap.Data, 0644)
}
