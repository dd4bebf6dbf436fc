package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilienceConfig bundles the HTTP client and the outbound guards shared by
// both provider clients: a client-side rate limiter (free-tier frugality) and
// a circuit breaker so a dead provider fails fast into the fallback chain.
type ResilienceConfig struct {
	Timeout        time.Duration
	RateLimit      rate.Limit // outbound requests/sec; 0 disables
	RateBurst      int
	BreakerName    string
	BreakerTrips   uint32        // consecutive failures before opening; 0 disables
	BreakerTimeout time.Duration // open -> half-open delay
}

// httpDoer executes provider requests through the limiter and breaker.
// Responses with 429 or 5xx statuses count as breaker failures; 401/404 do
// not, since those mean the upstream is healthy and answered.
type httpDoer struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newHTTPDoer(cfg ResilienceConfig) httpDoer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := httpDoer{client: &http.Client{Timeout: timeout}}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	if cfg.BreakerTrips > 0 {
		trips := cfg.BreakerTrips
		d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    cfg.BreakerName,
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= trips
			},
		})
	}
	return d
}

// do executes req. On 429 and 5xx it drains the body and returns the
// classified error; other statuses are left to the caller's classifier.
func (d httpDoer) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req = req.WithContext(ctx)

	exec := func() (*http.Response, error) {
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, classifyStatus(resp.StatusCode, 0)
		}
		return resp, nil
	}

	if d.breaker == nil {
		return exec()
	}
	result, err := d.breaker.Execute(func() (interface{}, error) {
		return exec()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrUpstreamFailure, err)
		}
		return nil, err
	}
	return result.(*http.Response), nil
}
