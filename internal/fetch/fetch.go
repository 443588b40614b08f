// Package fetch performs single conditional HTTP GETs and folds every
// transport result into one of three outcomes: fresh content, not modified,
// or failure. Nothing is retried here; the caller owns retry policy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the fixed per-request timeout.
const DefaultTimeout = 30 * time.Second

// ErrBodyTooLarge is returned when the response exceeds the configured body limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Outcome is the three-way classification of one fetch attempt.
type Outcome int

const (
	// Failed covers transport errors, timeouts, and any status except 2xx and 304.
	Failed Outcome = iota
	// Fresh is a 2xx response with a body.
	Fresh
	// NotModified is a 304 answer to a conditional request.
	NotModified
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Fresh:
		return "fresh"
	case NotModified:
		return "not_modified"
	default:
		return "failed"
	}
}

// Validators are the cache validators sent with a conditional request.
type Validators struct {
	ETag         string
	LastModified string
}

// IsZero reports whether no validator is set.
func (v Validators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Result is a successful fetch: fresh content or a 304.
type Result struct {
	Outcome Outcome

	// Body is empty for NotModified.
	Body []byte

	// FinalURL is the request URL after following redirects.
	FinalURL string

	// Headers holds the first value of each response header, keyed by
	// lower-cased header name.
	Headers map[string]string

	StatusCode int
}

// Header returns the value of a response header by case-insensitive name.
func (r *Result) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// StatusError is returned for any HTTP status other than 2xx and 304.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// OutcomeOf folds a Fetch return pair into an Outcome.
func OutcomeOf(res *Result, err error) Outcome {
	if err != nil || res == nil {
		return Failed
	}
	return res.Outcome
}

// Fetcher issues GET requests with a fixed user agent.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits how many body bytes are read. Zero means unlimited.
// A larger body fails the fetch instead of being truncated.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxBodySize = n
		}
	}
}

// New creates a Fetcher. A nil client gets one with DefaultTimeout.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	f := &Fetcher{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs one GET of rawURL, sending the validators that are set.
// A nil error means the Result is either Fresh or NotModified.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, v Validators) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	res := &Result{
		FinalURL:   resp.Request.URL.String(),
		Headers:    lowerHeaders(resp.Header),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode == http.StatusNotModified {
		res.Outcome = NotModified
		return res, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	res.Outcome = Fresh
	res.Body = body
	return res, nil
}

// readBody reads the whole body, failing when it exceeds maxBodySize.
func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.maxBodySize <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return body, nil
	}

	// Read one byte past the limit to detect oversize bodies.
	body, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

// lowerHeaders flattens headers to their first value keyed by lower-cased name.
func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[strings.ToLower(name)] = values[0]
		}
	}
	return out
}
