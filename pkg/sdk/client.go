package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/pipebuilder/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRetries is how many times a failed request is retried.
	DefaultRetries = 3
	// DefaultPageSize is the page size used when walking all pages.
	DefaultPageSize = 100
	// DefaultBackoff is the base delay between retries. It grows linearly.
	DefaultBackoff = 200 * time.Millisecond

	tracerName = "github.com/aretw0/pipebuilder/pkg/sdk"
)

// Client talks to the backend API.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   oauth2.TokenSource
	retries  int
	backoff  time.Duration
	pageSize int
	logger   *slog.Logger
	tracer   trace.Tracer
	flights  singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken authenticates every call with a static bearer token.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		if token == "" {
			c.tokens = nil
			return
		}
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
}

// WithTokenSource authenticates every call with tokens from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetry sets the retry count and base backoff.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithPageSize sets the page size used when walking all pages.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		retries:  DefaultRetries,
		backoff:  DefaultBackoff,
		pageSize: DefaultPageSize,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// token resolves the bearer token or reports it missing.
func (c *Client) token() (*oauth2.Token, error) {
	if c.tokens == nil {
		return nil, missing("access_token")
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, missing("access_token")
	}
	return tok, nil
}

// do sends one API call, retrying transport errors and 5xx answers.
// route is the low-cardinality span name, path the concrete request path.
func (c *Client) do(ctx context.Context, method, route, path string, query url.Values, body, out any) error {
	tok, err := c.token()
	if err != nil {
		return err
	}

	ctx, span := c.tracer.Start(ctx, "sdk "+method+" "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request", "method", method, "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return c.fail(span, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		status, err := c.send(ctx, tok, method, target, payload, out)
		span.SetAttributes(attribute.Int("http.attempts", attempt+1))
		if err == nil {
			span.SetAttributes(attribute.Int("http.status_code", status))
			return nil
		}
		lastErr = err
		if status > 0 {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if !retryable(ctx, status) {
			break
		}
	}
	return c.fail(span, lastErr)
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// retryable reports whether an attempt that ended with status may be repeated.
// status is zero for transport errors.
func retryable(ctx context.Context, status int) bool {
	if ctx.Err() != nil {
		return false
	}
	return status == 0 || status >= http.StatusInternalServerError
}

func (c *Client) send(ctx context.Context, tok *oauth2.Token, method, target string, payload []byte, out any) (int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return -1, fmt.Errorf("failed to build request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return -1, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(data))
}

// get is do for GET without a body.
func (c *Client) get(ctx context.Context, route, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, route, path, query, nil, out)
}

// pages walks every page of a list endpoint. fetch decodes one page and
// returns its next_page_token.
func (c *Client) pages(ctx context.Context, query url.Values, fetch func(url.Values) (string, error)) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("page_size", fmt.Sprint(c.pageSize))
	query.Del("page_token")
	seen := map[string]bool{}
	for {
		next, err := fetch(query)
		if err != nil {
			return err
		}
		if next == "" || seen[next] {
			return nil
		}
		seen[next] = true
		query.Set("page_token", next)
	}
}

// resourcePath joins a resource name such as "users/alice" onto the API root.
func resourcePath(name string, suffix ...string) string {
	parts := append([]string{strings.Trim(name, "/")}, suffix...)
	return "/" + strings.Join(parts, "/")
}
