package snapshotgen

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/okian/xpts/internal/adapters/snapshot"
	"github.com/okian/xpts/internal/adapters/view"
	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/domain/model"
)

// ErrUnexpectedStatus marks a non-2xx response from the service.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to a running xpts service.
type Client struct {
	baseURL string
	http    *http.Client
	codec   *snapshot.Codec
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		codec:   snapshot.NewCodec(),
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// PutSnapshot uploads doc and returns the service stats after the swap.
func (c *Client) PutSnapshot(ctx context.Context, doc snapshot.Document) (service.Stats, error) {
	var buf bytes.Buffer
	if err := c.codec.Encode(&buf, doc); err != nil {
		return service.Stats{}, err
	}
	var stats service.Stats
	err := c.do(ctx, http.MethodPut, "/snapshot", &buf, &stats)
	return stats, err
}

// Top fetches the ranked list for pos.
func (c *Client) Top(ctx context.Context, pos model.Position, limit int) (view.Ranking, error) {
	var out view.Ranking
	err := c.do(ctx, http.MethodGet, "/top/"+pos.String()+"?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Explain fetches one player's breakdown.
func (c *Client) Explain(ctx context.Context, pos model.Position, id string) (view.Explanation, error) {
	var out view.Explanation
	err := c.do(ctx, http.MethodGet, "/explain/"+pos.String()+"/"+id, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Wrapf(ErrUnexpectedStatus, "%s %s: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}
