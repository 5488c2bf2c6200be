package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/spray-advisory/internal/cache"
	"github.com/i474232898/spray-advisory/internal/weather"
)

var errNoCoordinates = errors.New("geocoder returned no coordinates")

// geocoder.ApiKey is package-global, so lookups are serialized.
var googleMu sync.Mutex

// GoogleGeocoder resolves postal codes with the Google Geocoding API.
// Results are cached; postal codes do not move.
type GoogleGeocoder struct {
	apiKey  string
	lookup  func(geocoder.Address) (geocoder.Location, error)
	results *cache.TTLCache[Coordinates]
}

// NewGoogleGeocoder returns a Geocoder backed by kelvins/geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		lookup:  geocoder.Geocoding,
		results: cache.New[Coordinates](7*24*time.Hour, cache.WithMaxEntries(4096)),
	}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, loc weather.Location) (Coordinates, error) {
	key := loc.Country + ":" + loc.Key()
	if c, ok := g.results.Get(key); ok {
		return c, nil
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	// The library call takes no context; abandon it on cancellation.
	go func() {
		googleMu.Lock()
		defer googleMu.Unlock()
		geocoder.ApiKey = g.apiKey
		l, err := g.lookup(geocoder.Address{PostalCode: loc.PostalCode, Country: loc.Country})
		done <- result{loc: l, err: err}
	}()

	select {
	case <-ctx.Done():
		return Coordinates{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Coordinates{}, r.err
		}
		if r.loc.Latitude == 0 && r.loc.Longitude == 0 {
			return Coordinates{}, errNoCoordinates
		}
		c := Coordinates{Lat: r.loc.Latitude, Lon: r.loc.Longitude}
		g.results.Put(key, c)
		return c, nil
	}
}
