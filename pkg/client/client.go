package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// maxResponseBody bounds how much of a response is read.
const maxResponseBody = 8 << 20

// Client talks to the SearchAI HTTP API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cfg     clientConfig
	obs     *observer

	mu    sync.RWMutex
	token string
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("searchai client: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("searchai client: base url must be http or https, got %q", baseURL)
	}
	if cfg.pageLimit <= 0 || cfg.pageLimit > 100 {
		return nil, fmt.Errorf("searchai client: page limit must be in 1..100, got %d", cfg.pageLimit)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: hc, cfg: cfg, obs: obs, token: cfg.token}, nil
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken drops the session token.
func (c *Client) ClearToken() { c.SetToken("") }

// Authenticated reports whether a session token is held.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// PageLimit returns the configured page size.
func (c *Client) PageLimit() int { return c.cfg.pageLimit }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	needAuth bool
}

// do executes one API call, decodes data into out and returns the envelope message.
// A 401 drops the held token.
func (c *Client) do(ctx context.Context, cl call, out any) (msg string, err error) {
	start := time.Now()
	defer func() { c.obs.observe(cl.op, start, err) }()

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if cl.needAuth && token == "" {
		return "", fmt.Errorf("%s: %w", cl.op, ErrNotAuthenticated)
	}

	req, err := c.newRequest(ctx, cl, token)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", cl.op, ctxErr)
		}
		return "", &networkError{op: cl.op, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &networkError{op: cl.op, err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropToken(token)
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		if resp.StatusCode >= 300 {
			return "", &APIError{Op: cl.op, Status: resp.StatusCode}
		}
		return "", fmt.Errorf("%s: decode response: %w", cl.op, jsonErr)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Op: cl.op, Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
		}
		return "", apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("%s: decode data: %w", cl.op, err)
		}
	}
	return env.Message, nil
}

func (c *Client) newRequest(ctx context.Context, cl call, token string) (*http.Request, error) {
	u := *c.baseURL
	// cl.path is already escaped.
	u.RawPath = c.baseURL.EscapedPath() + cl.path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("%s: build path: %w", cl.op, err)
	}
	u.Path = p
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		if c.cfg.useCookie {
			req.AddCookie(&http.Cookie{Name: c.cfg.cookieName, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// dropToken clears the token unless it was replaced while the request ran.
func (c *Client) dropToken(used string) {
	c.mu.Lock()
	if c.token == used {
		c.token = ""
	}
	c.mu.Unlock()
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
