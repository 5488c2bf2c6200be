package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/i474232898/spray-advisory/internal/resilience"
)

var (
	errMalformed     = errors.New("malformed payload")
	errNotConfigured = errors.New("provider not configured")
)

// getJSON performs a resilient GET and decodes the JSON body into out.
func getJSON(ctx context.Context, cfg resilience.HTTPClientConfig, cb *gobreaker.CircuitBreaker, url string, out any) error {
	resp, err := resilience.Get(ctx, cfg, cb, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func kphFromMS(ms float64) float64 {
	return ms * 3.6
}
