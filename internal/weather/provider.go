package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrNoProviderData is returned when every provider in a chain failed or returned nothing.
var ErrNoProviderData = errors.New("no provider returned forecast data")

// Provider abstracts a forecast source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
// Fetch returns one Forecast per day, today first. Spray fields may be left empty;
// the Service scores every entry before handing it out.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) ([]Forecast, error)
}

// FirstSuccess tries providers strictly in order and returns the first
// non-empty result along with the provider's name. Each attempt is bounded by
// timeout when it is positive.
func FirstSuccess(ctx context.Context, providers []Provider, loc Location, timeout time.Duration) ([]Forecast, string, error) {
	var errs []error

	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		days, err := fetchBounded(ctx, p, loc, timeout)
		if err != nil {
			log.Printf("weather: provider %s failed for %s: %v", p.Name(), loc.Key(), err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if len(days) == 0 {
			log.Printf("weather: provider %s returned no days for %s", p.Name(), loc.Key())
			errs = append(errs, fmt.Errorf("%s: empty result", p.Name()))
			continue
		}

		return days, p.Name(), nil
	}

	if len(errs) == 0 {
		return nil, "", ErrNoProviderData
	}
	return nil, "", fmt.Errorf("%w: %w", ErrNoProviderData, errors.Join(errs...))
}

func fetchBounded(ctx context.Context, p Provider, loc Location, timeout time.Duration) ([]Forecast, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Fetch(ctx, loc)
}
