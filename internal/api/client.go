package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"librarian/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds a single request
const DefaultTimeout = 30 * time.Second

// maxErrorBody is how much of an error response is kept in a StatusError
const maxErrorBody = 512

// TokenSource returns the bearer token of the current session, or "" when signed out
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

// Token returns the token itself
func (t StaticToken) Token() string {
	return string(t)
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS and Burst pace outgoing requests; zero RPS disables pacing
	RPS   float64
	Burst int
}

// Client talks to the library REST API
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a client for the API at opts.BaseURL
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL: base,
		http:    newHTTPClient(opts.Timeout),
		limiter: limiter,
		tokens:  StaticToken(""),
		logger:  logger,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          25,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 2 {
				return fmt.Errorf("attempted redirect to %s", req.URL)
			}
			return nil
		},
	}
}

// WithTokenSource returns a copy of the client that authenticates with ts.
// The copy shares the connection pool and the rate limiter.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	if ts == nil {
		ts = StaticToken("")
	}
	cp.tokens = ts
	return &cp
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	anonym   bool
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", cl.endpoint, err)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.anonym {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIRequestDuration.WithLabelValues(cl.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(cl.endpoint, "error").Inc()
		c.logger.Warn("API request failed",
			zap.String("endpoint", cl.endpoint),
			zap.String("request_id", req.Header.Get("X-Request-ID")),
			zap.Error(err))
		return fmt.Errorf("%s: %w", cl.endpoint, err)
	}
	defer resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(cl.endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	c.logger.Debug("API request",
		zap.String("endpoint", cl.endpoint),
		zap.String("method", cl.method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", cl.endpoint, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", cl.endpoint, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: cl.endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", cl.endpoint, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", cl.endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return c.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: path, query: query}, out)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
