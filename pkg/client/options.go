package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultCookieName = "token"
	defaultPageLimit  = 20
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration

	token      string
	useCookie  bool
	cookieName string

	pageLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() clientConfig {
	return clientConfig{
		timeout:    defaultTimeout,
		cookieName: defaultCookieName,
		pageLimit:  defaultPageLimit,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
// WithTimeout is ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout bounds every request. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.token = token
		c.useCookie = false
	})
}

// WithCookieToken sends the token as a session cookie instead of a header.
// An empty name keeps the server default ("token").
func WithCookieToken(name, token string) Option {
	return optionFunc(func(c *clientConfig) {
		if name != "" {
			c.cookieName = name
		}
		c.token = token
		c.useCookie = true
	})
}

// WithPageLimit sets the page size the Store requests. Default: 20.
func WithPageLimit(limit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageLimit = limit
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
