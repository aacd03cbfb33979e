// Package fetch provides an HTTP client wrapper that retries rate-limited
// and transiently failed requests with capped exponential backoff.
package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// DefaultMaxRetries is the retry budget when none is configured.
const DefaultMaxRetries = 3

// Client wraps an *http.Client with retry-on-429 and retry-on-transport-error
// behavior. The delay before attempt n's retry is 2^n seconds: 1s, 2s, 4s for
// attempts 0, 1, 2. No jitter.
type Client struct {
	HTTP       *http.Client
	MaxRetries int

	// sleep waits for d or until ctx is done. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a backoff client around httpClient. Pass nil to use a default
// client.
func New(httpClient *http.Client, maxRetries int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		HTTP:       httpClient,
		MaxRetries: maxRetries,
		sleep:      sleepCtx,
	}
}

// Do executes req, retrying on HTTP 429 and on transport errors.
//
// Terminal behavior when the retry budget is spent: a final 429 response is
// returned as-is (nil error) so the caller sees the real status; a final
// transport error is returned to the caller. Responses for retried attempts
// are closed here.
//
// Requests with a body must have GetBody set (http.NewRequest does this for
// common body types) so the body can be replayed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			attemptReq = req.Clone(ctx)
			attemptReq.Body = body
		}

		resp, err = c.HTTP.Do(attemptReq)

		retriesLeft := c.MaxRetries - attempt
		switch {
		case err != nil:
			if retriesLeft <= 0 {
				return nil, err
			}
			slog.Warn("request failed, backing off",
				"url", req.URL.Redacted(),
				"attempt", attempt,
				"delay", backoffDelay(attempt),
				"error", err,
			)
		case resp.StatusCode == http.StatusTooManyRequests:
			if retriesLeft <= 0 {
				// Out of retries: hand the live 429 back to the caller.
				return resp, nil
			}
			resp.Body.Close()
			slog.Warn("rate limited, backing off",
				"url", req.URL.Redacted(),
				"attempt", attempt,
				"delay", backoffDelay(attempt),
			)
		default:
			return resp, nil
		}

		if waitErr := c.sleep(ctx, backoffDelay(attempt)); waitErr != nil {
			return nil, waitErr
		}
	}
}

// backoffDelay returns 2^attempt seconds.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
