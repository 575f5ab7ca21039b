package client

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	headers    map[string]string
}

func defaultOptions() *options {
	return &options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(map[string]string),
	}
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the request timeout on the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.httpClient.Timeout = d }
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(o *options) { o.headers[key] = value }
}

func (o *options) applyHeaders(req *http.Request) {
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
}
