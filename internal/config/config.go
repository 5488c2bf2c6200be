package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/spray-advisory/internal/common"
)

// DefaultRegistryURL is the data.gov.au CKAN search endpoint.
const DefaultRegistryURL = "https://data.gov.au/data/api/3/action/datastore_search"

type AppConfig struct {
	Port string

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string
	Country           string

	RegistryURL        string
	RegistryResourceID string
	RegistryRatePerSec float64

	// HTTPTimeout bounds every outbound request.
	HTTPTimeout        time.Duration
	ProviderMaxRetries int

	ProductCacheTTL time.Duration
	WeatherCacheTTL time.Duration
	CacheMaxEntries int

	// RulesFile optionally replaces the embedded compliance rule tables.
	RulesFile string

	// Postal codes kept warm in the weather cache.
	WarmPostcodes []string
	WarmInterval  time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:               getenvDefault("PORT", "8080"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:      os.Getenv("WEATHERAPI_API_KEY"),
		GeocoderAPIKey:     os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		Country:            getenvDefault("WEATHER_COUNTRY", "AU"),
		RegistryURL:        getenvDefault("REGISTRY_URL", DefaultRegistryURL),
		RegistryResourceID: os.Getenv("REGISTRY_RESOURCE_ID"),
		ProviderMaxRetries: getenvInt("PROVIDER_MAX_RETRIES", 1),
		CacheMaxEntries:    getenvInt("CACHE_MAX_ENTRIES", 1024),
		RulesFile:          os.Getenv("RULES_FILE"),
		WarmPostcodes:      common.SplitList(os.Getenv("WARM_POSTCODES")),
	}

	rate, err := strconv.ParseFloat(getenvDefault("REGISTRY_RATE_PER_SEC", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REGISTRY_RATE_PER_SEC: %w", err)
	}
	cfg.RegistryRatePerSec = rate

	durations := []struct {
		key, def string
		dst      *time.Duration
	}{
		{"HTTP_TIMEOUT", "8s", &cfg.HTTPTimeout},
		{"PRODUCT_CACHE_TTL", "1h", &cfg.ProductCacheTTL},
		{"WEATHER_CACHE_TTL", "30m", &cfg.WeatherCacheTTL},
		{"WARM_INTERVAL", "25m", &cfg.WarmInterval},
	}
	for _, d := range durations {
		v, err := getenvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if cfg.ProductCacheTTL <= 0 || cfg.WeatherCacheTTL <= 0 {
		return nil, fmt.Errorf("cache TTLs must be positive")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
