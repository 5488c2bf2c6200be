package weather

import (
	"context"
	"log"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/spray-advisory/internal/cache"
)

// MaxForecastDays bounds how many days a forecast call returns.
const MaxForecastDays = 3

// Service resolves forecasts through an ordered provider chain, caches the
// results per postal code and falls back to a synthetic forecast.
type Service struct {
	providers []Provider
	cache     *cache.TTLCache[[]Forecast]
	group     singleflight.Group

	country         string
	providerTimeout time.Duration
	now             func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCountry sets the country code passed to providers alongside the postal code.
func WithCountry(country string) ServiceOption {
	return func(s *Service) { s.country = country }
}

// WithProviderTimeout bounds each provider attempt.
func WithProviderTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.providerTimeout = d }
}

// WithServiceClock overrides the clock used for synthetic forecasts.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service. Providers are tried in slice order.
func NewService(c *cache.TTLCache[[]Forecast], providers []Provider, opts ...ServiceOption) *Service {
	s := &Service{
		providers:       providers,
		cache:           c,
		country:         "AU",
		providerTimeout: 10 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast returns 1-3 scored daily forecasts for postalCode, today first.
// It never returns an empty slice: when no provider succeeds a synthetic
// seasonal forecast is used.
func (s *Service) Forecast(ctx context.Context, postalCode string) []Forecast {
	loc := s.location(postalCode)
	key := loc.Key()

	if key == "" {
		return []Forecast{Synthetic(key, s.now()).Scored()}
	}

	if days, ok := s.cache.Get(key); ok {
		return cloneForecasts(days)
	}

	// The shared fetch outlives any single caller; each provider attempt is
	// still bounded by providerTimeout.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), loc), nil
	})

	select {
	case res := <-ch:
		return cloneForecasts(res.Val.([]Forecast))
	case <-ctx.Done():
		log.Printf("weather: caller gave up on %s: %v", key, ctx.Err())
		return []Forecast{Synthetic(key, s.now()).Scored()}
	}
}

// Refresh bypasses the cache, fetches from the chain and stores the result.
func (s *Service) Refresh(ctx context.Context, postalCode string) []Forecast {
	return cloneForecasts(s.refresh(ctx, s.location(postalCode)))
}

// location owns its postal code: callers may pass strings backed by reused
// request buffers, and the code outlives the call as a cache key.
func (s *Service) location(postalCode string) Location {
	return Location{PostalCode: strings.Clone(strings.TrimSpace(postalCode)), Country: s.country}
}

func (s *Service) refresh(ctx context.Context, loc Location) []Forecast {
	days, source, err := FirstSuccess(ctx, s.providers, loc, s.providerTimeout)
	if err != nil {
		log.Printf("INFO: falling back to synthetic forecast for %s: %v", loc.Key(), err)
		days, source = []Forecast{Synthetic(loc.PostalCode, s.now())}, SyntheticSource
	}

	if len(days) > MaxForecastDays {
		days = days[:MaxForecastDays]
	}

	scored := make([]Forecast, 0, len(days))
	for _, d := range days {
		if d.PostalCode == "" {
			d.PostalCode = loc.PostalCode
		}
		if d.Location == "" {
			d.Location = loc.PostalCode
		}
		if d.Source == "" {
			d.Source = source
		}
		scored = append(scored, d.Scored())
	}

	s.cache.Put(loc.Key(), scored)
	return scored
}

func cloneForecasts(days []Forecast) []Forecast {
	out := make([]Forecast, len(days))
	for i, d := range days {
		d.Warnings = slices.Clone(d.Warnings)
		out[i] = d
	}
	return out
}
