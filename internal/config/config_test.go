package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "WEATHER_COUNTRY", "REGISTRY_URL", "HTTP_TIMEOUT", "WARM_POSTCODES", "REGISTRY_RATE_PER_SEC"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Country != "AU" {
		t.Fatalf("unexpected defaults: port=%q country=%q", cfg.Port, cfg.Country)
	}
	if cfg.RegistryURL != DefaultRegistryURL {
		t.Fatalf("expected default registry url, got %q", cfg.RegistryURL)
	}
	if cfg.HTTPTimeout != 8*time.Second || cfg.WarmInterval != 25*time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.HTTPTimeout, cfg.WarmInterval)
	}
	if cfg.RegistryRatePerSec != 5 {
		t.Fatalf("expected rate 5, got %v", cfg.RegistryRatePerSec)
	}
	if len(cfg.WarmPostcodes) != 0 {
		t.Fatalf("expected no warm postcodes, got %v", cfg.WarmPostcodes)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WARM_POSTCODES", "2000, 3000,,4000")
	t.Setenv("WEATHER_CACHE_TTL", "5m")
	t.Setenv("CACHE_MAX_ENTRIES", "10")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if got := cfg.WarmPostcodes; len(got) != 3 || got[1] != "3000" {
		t.Fatalf("unexpected warm postcodes: %v", got)
	}
	if cfg.WeatherCacheTTL != 5*time.Minute || cfg.CacheMaxEntries != 10 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for invalid HTTP_TIMEOUT")
	}
}
