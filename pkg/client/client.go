// Package client talks to the workflow API over HTTP with bearer authentication.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/flowdeck/pkg/auth"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 10 << 20
)

// Config configures a Client. Only BaseURL is required.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Tokens    auth.TokenStore
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Transport http.RoundTripper
}

// Client implements FetchJSON and SendJSON against the workflow API, plus
// typed helpers for each endpoint.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  auth.TokenStore
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = auth.NewMemoryStore("")
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   timeout,
		},
		tokens: tokens,
		logger: logger.With("module", "client"),
		tracer: tracer,
	}, nil
}

// Tokens returns the store the client reads its bearer token from.
//
//nolint:ireturn // configured collaborator
func (c *Client) Tokens() auth.TokenStore {
	return c.tokens
}

// FetchJSON performs GET path with the given query and returns the body.
func (c *Client) FetchJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// SendJSON performs POST path with body encoded as JSON and returns the response body.
func (c *Client) SendJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Delete performs DELETE path.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()

	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client."+strings.ToLower(method),
		attribute.String(otelhelper.RequestPathKey, path),
	)
	defer span.End()

	raw, err := c.roundTrip(ctx, method, path, query, body)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.RequestPathKey, path))
		c.logger.DebugContext(ctx, "API request failed", "method", method, "path", path, "error", err)

		return nil, err
	}

	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, &NetworkError{Op: method, Path: path, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)

	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case !errors.Is(err, auth.ErrNoToken):
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	c.logger.DebugContext(ctx, "API request", "method", method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method, Path: path, Err: err}
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, data)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if !json.Valid(data) {
		return nil, &NetworkError{Op: method, Path: path, Err: ErrInvalidResponse}
	}

	return json.RawMessage(data), nil
}
