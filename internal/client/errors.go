package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors forming the provider failure taxonomy. The orchestrator
// branches on these: an invalid key is fatal for the call, a rate limit means
// the caller should prefer cached data, not-found is surfaced distinctly so
// the UI can suggest a spelling check, and everything else triggers the
// fallback chain.
var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrNoProvider       = errors.New("no weather provider configured")
)

// classifyStatus maps an HTTP status to the taxonomy. notFoundStatus differs
// per provider: OpenWeather answers 404 for unknown locations, Visual
// Crossing answers 400. Returns nil for 2xx.
func classifyStatus(statusCode, notFoundStatus int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: check the provider credential", ErrInvalidAPIKey)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: previously cached data may be used instead", ErrRateLimited)
	case notFoundStatus:
		return ErrLocationNotFound
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, statusCode)
	}
	return nil
}
