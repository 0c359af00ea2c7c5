// Package transport builds the HTTP client the front ends hand to the
// library. Retry with backoff and request rate limiting live here; the
// library itself issues each request exactly once.
package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const (
	defaultRetryDelay = 500 * time.Millisecond
	defaultMaxDelay   = 10 * time.Second
)

// Options configures the client.
type Options struct {
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint
	// RequestsPerSecond caps the request rate; zero disables the limit.
	RequestsPerSecond float64
	RetryDelay        time.Duration
	// Base performs the actual requests; http.DefaultTransport when nil.
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewClient returns an *http.Client that retries transient failures.
func NewClient(opts Options) *http.Client {
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewRoundTripper(opts),
	}
}

// RoundTripper retries network errors, 429 and 5xx responses with
// exponential backoff.
type RoundTripper struct {
	base     http.RoundTripper
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewRoundTripper wraps opts.Base.
func NewRoundTripper(opts Options) *RoundTripper {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &RoundTripper{
		base:     base,
		limiter:  limiter,
		attempts: opts.MaxRetries + 1,
		delay:    delay,
		logger:   logger,
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.code)
}

// RoundTrip implements http.RoundTripper. When every attempt ends in a
// retryable status the last response is returned, not an error, so callers
// still see the server's answer.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	attempts := t.attempts
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		attempts = 1
	}

	var resp, last *http.Response
	err := retry.Do(
		func() error {
			if t.limiter != nil {
				if err := t.limiter.Wait(ctx); err != nil {
					return retry.Unrecoverable(err)
				}
			}

			attempt := req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return retry.Unrecoverable(err)
				}
				attempt.Body = body
			}

			r, err := t.base.RoundTrip(attempt)
			if err != nil {
				return err
			}
			if retryable(r.StatusCode) {
				discard(last)
				last = r
				return &statusError{code: r.StatusCode}
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(t.delay),
		retry.MaxDelay(defaultMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			t.logger.Debug("retrying request", "url", req.URL.String(), "attempt", n+1, "error", err)
		}),
	)

	if resp != nil {
		discard(last)
		return resp, nil
	}

	var se *statusError
	if errors.As(err, &se) && last != nil {
		t.logger.Info("giving up on request", "url", req.URL.String(), "status", last.StatusCode)
		return last, nil
	}
	discard(last)
	return nil, err
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
