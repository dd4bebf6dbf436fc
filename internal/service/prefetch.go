package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Prefetch warms the cache by fetching weather for each location
// concurrently. Per-location failures are aggregated; one bad location does
// not stop the others.
func (s *Service) Prefetch(ctx context.Context, locations []string) error {
	if s.logger != nil {
		s.logger.Info("prefetching weather", zap.Int("locations", len(locations)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(locations))
	for _, loc := range locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.FetchCurrentAndForecast(ctx, loc); err != nil {
				errCh <- fmt.Errorf("prefetch %s: %w", loc, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("prefetch: %v", errs)
	}
	return nil
}
