package probe

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryFetcher retries transport errors and throttling/server statuses with
// exponential backoff and full jitter.
type RetryFetcher struct {
	Inner    Fetcher
	Attempts int
	Base     time.Duration
	Max      time.Duration

	// Jitter picks a delay in [0, d); defaults to uniform random.
	Jitter func(d time.Duration) time.Duration
}

func NewRetryFetcher(inner Fetcher, attempts int, base, max time.Duration) *RetryFetcher {
	return &RetryFetcher{Inner: inner, Attempts: attempts, Base: base, Max: max}
}

// Backoff returns the upper bound of the delay before retry n (0-based).
func (r *RetryFetcher) Backoff(n int) time.Duration {
	d := r.Base
	for i := 0; i < n && (r.Max <= 0 || d < r.Max); i++ {
		d *= 2
	}
	if r.Max > 0 && d > r.Max {
		d = r.Max
	}
	return d
}

func (r *RetryFetcher) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if r.Jitter != nil {
		return r.Jitter(d)
	}
	return rand.N(d)
}

func (r *RetryFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		resp *Response
		err  error
	)
	for i := 0; i < attempts; i++ {
		resp, err = r.Inner.Fetch(ctx, url)
		if err == nil && !Retryable(resp.StatusCode) {
			return resp, nil
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(r.jitter(r.Backoff(i)))
		select {
		case <-ctx.Done():
			t.Stop()
			return resp, fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-t.C:
		}
	}
	// annotate so the caller can see it was a retry series
	if err != nil {
		return resp, fmt.Errorf("after %d attempts: %w", attempts, err)
	}
	return resp, nil
}
