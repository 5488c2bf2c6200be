package app

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/i474232898/spray-advisory/internal/advisor"
	"github.com/i474232898/spray-advisory/internal/cache"
	"github.com/i474232898/spray-advisory/internal/compliance"
	"github.com/i474232898/spray-advisory/internal/config"
	"github.com/i474232898/spray-advisory/internal/registry"
	"github.com/i474232898/spray-advisory/internal/resilience"
	"github.com/i474232898/spray-advisory/internal/weather"
	"github.com/i474232898/spray-advisory/internal/weather/providers"
)

// Components are the long-lived objects shared by the server and the CLI.
type Components struct {
	Engine   *advisor.Engine
	Weather  *weather.Service
	Registry *registry.Client
}

// Build wires the registry client, the weather provider chain and the rule set from cfg.
func Build(cfg *config.AppConfig) (*Components, error) {
	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound calls.
	httpCfg := resilience.DefaultHTTPClientConfig(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.ProviderMaxRetries)

	reg := registry.NewClient(registry.Config{
		BaseURL:       cfg.RegistryURL,
		ResourceID:    cfg.RegistryResourceID,
		HTTP:          httpCfg,
		RatePerSecond: cfg.RegistryRatePerSec,
		Timeout:       cfg.HTTPTimeout,
	}, cache.New[[]registry.Product](cfg.ProductCacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries)))

	// Providers in priority order; each goes through retry and a circuit breaker.
	provs := []weather.Provider{
		providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey, ""),
		providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey, ""),
	}
	// Open-Meteo needs no key but postal codes must be geocoded first.
	if cfg.GeocoderAPIKey != "" {
		provs = append(provs, providers.NewOpenMeteoProvider(httpCfg, providers.NewGoogleGeocoder(cfg.GeocoderAPIKey), ""))
	}

	svc := weather.NewService(
		cache.New[[]weather.Forecast](cfg.WeatherCacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries)),
		provs,
		weather.WithCountry(cfg.Country),
		weather.WithProviderTimeout(cfg.HTTPTimeout),
	)

	return &Components{
		Engine:   advisor.NewEngine(reg, svc, rules),
		Weather:  svc,
		Registry: reg,
	}, nil
}

func loadRules(path string) (*compliance.RuleSet, error) {
	if path == "" {
		return compliance.DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rules, err := compliance.LoadRules(data)
	if err != nil {
		return nil, fmt.Errorf("load rules file %s: %w", path, err)
	}
	log.Printf("INFO: compliance rules loaded from %s\n", path)
	return rules, nil
}
