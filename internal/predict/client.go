// Package predict implements the HTTP client for the line-survival
// scoring service.
//
// The wire contract is a single POST: {"lines": [...]} in, and
// {"probabilities": [...]} back on 2xx. The client is stateless: the
// endpoint travels with each call, so a configuration change needs no
// rebuild. No timeout and no retry of its own; cancellation arrives
// through the context when a refresh is superseded.
package predict

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Sentinel errors for response classification. Callers treat every
// failure identically (empty prediction set); the distinction exists
// for diagnostics.
var (
	// ErrStatus indicates a non-2xx response.
	ErrStatus = errors.New("predict: unexpected response status")

	// ErrMalformed indicates a 2xx response without a usable
	// probabilities array.
	ErrMalformed = errors.New("predict: malformed response body")
)

// Client calls the scoring service. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a scoring client.
func NewClient(opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict sends the document lines in order and returns one
// probability per line. The response array may legitimately be shorter
// than the request; the caller truncates, not the client.
func (c *Client) Predict(ctx context.Context, endpoint string, lines []string) ([]float64, error) {
	body, err := encodeRequest(lines)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predict: reading response: %w", err)
	}

	return decodeResponse(data)
}

// encodeRequest builds the {"lines": [...]} body.
func encodeRequest(lines []string) ([]byte, error) {
	if lines == nil {
		lines = []string{}
	}
	body, err := sjson.SetBytes([]byte(`{}`), "lines", lines)
	if err != nil {
		return nil, fmt.Errorf("predict: encoding request: %w", err)
	}
	return body, nil
}

// decodeResponse extracts the probabilities array. A missing or
// non-array field is ErrMalformed; individual non-numeric entries
// decode to 0 rather than failing the whole response.
func decodeResponse(data []byte) ([]float64, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}

	field := gjson.GetBytes(data, "probabilities")
	if !field.Exists() || !field.IsArray() {
		return nil, ErrMalformed
	}

	entries := field.Array()
	probs := make([]float64, len(entries))
	for i, entry := range entries {
		probs[i] = entry.Float()
	}
	return probs, nil
}
