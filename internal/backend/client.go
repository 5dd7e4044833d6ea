// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package backend is the HTTP client for the Runit backend REST API.
//
// A single Client handles URL building, bearer authentication, JSON
// encoding and error parsing. The per-resource services (BlogService,
// RaceService, ...) are thin typed wrappers over it. There are no retries
// and no caching.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
)

const (
	maxErrorBodySize    = 64 * 1024
	maxResponseBodySize = 16 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// CircuitBreaker wraps every call in a breaker that opens after
	// BreakerFailures consecutive server-side failures.
	CircuitBreaker  bool
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client issues JSON requests against the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker
}

// NewClient creates a Client for opts.BaseURL.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
	}
	if opts.CircuitBreaker {
		c.breaker = newBreaker("backend-api", opts.BreakerFailures, opts.BreakerTimeout)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenKey struct{}

// ContextWithToken attaches the session bearer token to ctx. Every request
// made with the returned context carries Authorization: Bearer <token>.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached to ctx, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Do sends a request to path (relative to the base URL). body is encoded
// as JSON when non-nil. On 2xx the response is decoded into out when out is
// non-nil; on any other status an *APIError is returned.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.breaker != nil {
		return c.breaker.execute(func() error {
			return c.do(ctx, method, path, body, out)
		})
	}
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	resource := resourceLabel(path)
	start := time.Now()

	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request body: %w", resource, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(method, resource, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest(method, resource, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, readBodyForError(resp.Body))
		if resp.StatusCode == http.StatusUnauthorized && TokenFromContext(ctx) != "" {
			// Log only. The session is left untouched.
			metrics.BackendUnauthorized.Inc()
			logging.Ctx(ctx).Warn().Str("method", method).Str("path", path).Msg("Backend rejected bearer token")
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", resource, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}

// readBodyForError reads a bounded amount of an error response body.
func readBodyForError(body io.Reader) []byte {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return nil
	}
	return data
}

// resourceLabel turns "/api/admin/blog-posts/42" into "admin/blog-posts"
// so metric cardinality does not grow with ids.
func resourceLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] == "api" {
		parts = parts[1:]
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	if len(parts) == 2 && parts[0] != "admin" && parts[0] != "auth" && parts[0] != "blog" {
		parts = parts[:1]
	}
	return strings.Join(parts, "/")
}
