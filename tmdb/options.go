package tmdb

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout      time.Duration
	httpClient   *http.Client
	imageBaseURL string
	concurrency  int
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:      30 * time.Second,
		imageBaseURL: DefaultImageBaseURL,
		concurrency:  5,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client. The timeout option is ignored
// when a custom client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithImageBaseURL sets the prefix used to build poster URLs.
func WithImageBaseURL(base string) Option {
	return func(o *clientOptions) {
		if base != "" {
			o.imageBaseURL = base
		}
	}
}

// WithConcurrency bounds the number of parallel detail requests in GetDetailsBatch.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
