// internal/adapters/tna/client.go
package tna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tna_gateway/internal/adapters/observability"
)

// Client is the thin transport wrapper around the third-party tour
// product API. One outbound HTTP call per method, no retries: fallback
// and retry policy is owned by the resolvers above this layer, which
// need to see every raw failure to drive their cascades.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// UpstreamError preserves the upstream's raw status and body untouched
// so callers (and the status classifier) can inspect them.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tna: upstream status %d: %s", e.Status, e.Body)
}

// StatusCode reports the preserved upstream status, letting the status
// classifier prefer it over scanning the message text.
func (e *UpstreamError) StatusCode() int { return e.Status }

// ---- Public API ----

func (c *Client) Detail(ctx context.Context, productID string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &out)
	return out, err
}

// DateOptions queries the date-indexed option calendar for one day.
func (c *Client) DateOptions(ctx context.Context, productID, date string) (map[string]any, error) {
	q := url.Values{"date": {date}}
	p := "/products/" + url.PathEscape(productID) + "/options/date?" + q.Encode()
	var out map[string]any
	err := c.do(ctx, http.MethodGet, p, nil, &out)
	return out, err
}

// PeriodOptions queries the period-indexed option set (no date parameter).
func (c *Client) PeriodOptions(ctx context.Context, productID string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID)+"/options/period", nil, &out)
	return out, err
}

func (c *Client) Dates(ctx context.Context, productID, startDate string) (map[string]any, error) {
	q := url.Values{"start_date": {startDate}}
	p := "/products/" + url.PathEscape(productID) + "/calendar?" + q.Encode()
	var out map[string]any
	err := c.do(ctx, http.MethodGet, p, nil, &out)
	return out, err
}

func (c *Client) DatePrice(ctx context.Context, productID string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/price/date", body, &out)
	return out, err
}

func (c *Client) PeriodPrice(ctx context.Context, productID string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/price/period", body, &out)
	return out, err
}

// DynamicPrice is the one passthrough path: downstream consumers depend
// on the upstream's native structure, so the body comes back verbatim.
func (c *Client) DynamicPrice(ctx context.Context, productID, optionID string, query map[string]any) (json.RawMessage, error) {
	p := "/products/" + url.PathEscape(productID) + "/options/" + url.PathEscape(optionID) + "/dynamic-price"
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, p, query, &raw)
	return raw, err
}

// ---- Internals ----

// do performs one request with client-side rate limiting and decodes the
// 2xx body into out. Non-2xx responses surface as *UpstreamError with
// the raw status and (truncated) body preserved.
func (c *Client) do(ctx context.Context, method, path string, body map[string]any, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tna-gateway/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("tna", endpointLabel(path), 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("tna", endpointLabel(path), resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode upstream body: %w", err)
		}
		return nil

	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
}

// endpointLabel strips the query string and per-product path segments so
// metrics cardinality stays bounded.
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch {
		case parts[i-1] == "products":
			parts[i] = "{id}"
		case parts[i-1] == "options" && i != len(parts)-1:
			// option id segment; trailing "period"/"date" stay literal
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
