package http

import (
	"net"
	"net/http"
	"time"
)

// TransportFunc wraps the client's round tripper
type TransportFunc func(http.RoundTripper) http.RoundTripper

// ClientOption tunes the http.Client built for a Connector
type ClientOption func(*clientConfig)

type clientConfig struct {
	dialTimeout           time.Duration
	requestTimeout        time.Duration
	keepAlive             time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	wrappers              []TransportFunc
}

// outbound calls are small webhook posts, so the defaults stay tight
func defaultClientConfig() clientConfig {
	return clientConfig{
		dialTimeout:           5 * time.Second,
		requestTimeout:        15 * time.Second,
		keepAlive:             30 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
		idleConnTimeout:       90 * time.Second,
	}
}

func WithConnClientTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) { c.dialTimeout = timeout }
}

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) { c.requestTimeout = timeout }
}

func WithClientKeepAlive(keepAlive time.Duration) ClientOption {
	return func(c *clientConfig) { c.keepAlive = keepAlive }
}

func WithResponseHeaderTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) { c.responseHeaderTimeout = timeout }
}

func WithIdleConnTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) { c.idleConnTimeout = timeout }
}

// WithTransport adds a round tripper wrapper. Wrappers apply in order, so the
// last one added sees the request first.
func WithTransport(wrap TransportFunc) ClientOption {
	return func(c *clientConfig) { c.wrappers = append(c.wrappers, wrap) }
}

func newClient(opts ...ClientOption) *http.Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.dialTimeout,
		KeepAlive: cfg.keepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
		ResponseHeaderTimeout: cfg.responseHeaderTimeout,
		IdleConnTimeout:       cfg.idleConnTimeout,
	}
	for _, wrap := range cfg.wrappers {
		rt = wrap(rt)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: rt,
	}
}
