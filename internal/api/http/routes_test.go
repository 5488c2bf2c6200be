package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/spray-advisory/internal/advisor"
	"github.com/i474232898/spray-advisory/internal/cache"
	"github.com/i474232898/spray-advisory/internal/compliance"
	"github.com/i474232898/spray-advisory/internal/registry"
	"github.com/i474232898/spray-advisory/internal/weather"
)

// newTestApp builds an app whose registry and weather chain are offline, so
// every answer comes from the fallbacks.
func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler, Immutable: true})

	reg := registry.NewClient(registry.Config{}, cache.New[[]registry.Product](time.Hour))
	svc := weather.NewService(cache.New[[]weather.Forecast](time.Hour), nil)
	RegisterRoutes(app, advisor.NewEngine(reg, svc, nil))
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, wantStatus int) map[string]any {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", wantStatus, resp.StatusCode, body)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSearchProducts(t *testing.T) {
	app := newTestApp()

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/products?q=copper&limit=5", nil), http.StatusOK)
	if out["count"].(float64) != 2 {
		t.Fatalf("expected 2 products, got %v", out["count"])
	}

	// Missing query and out-of-range limit are rejected.
	for _, target := range []string{"/api/v1/products", "/api/v1/products?q=copper&limit=0", "/api/v1/products?q=copper&limit=x"} {
		out = doJSON(t, app, httptest.NewRequest(http.MethodGet, target, nil), http.StatusBadRequest)
		if out["error"] != true {
			t.Fatalf("expected error envelope for %s, got %v", target, out)
		}
	}
}

func TestGetProduct(t *testing.T) {
	app := newTestApp()

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/products/58890", nil), http.StatusOK)
	product := out["product"].(map[string]any)
	if product["name"] != "Paraquat 250 Herbicide" {
		t.Fatalf("unexpected product: %v", product)
	}
	if label := out["label"].(map[string]any); label["restrictedUse"] != true {
		t.Fatalf("expected restricted-use label, got %v", label)
	}

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/products/00000", nil), http.StatusNotFound)
}

func TestForecastPostcodeValidation(t *testing.T) {
	app := newTestApp()

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast", nil), http.StatusBadRequest)
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast?postcode=20%2000", nil), http.StatusBadRequest)

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast?postcode=2000", nil), http.StatusOK)
	days := out["forecasts"].([]any)
	if len(days) != 1 || days[0].(map[string]any)["source"] != weather.SyntheticSource {
		t.Fatalf("expected one synthetic forecast, got %v", days)
	}
}

func TestComplianceCarriesDisclaimer(t *testing.T) {
	app := newTestApp()

	body := `{"productId":"45112","state":"NSW","crop":"wheat","nearWaterways":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compliance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	out := doJSON(t, app, req, http.StatusOK)
	if out["disclaimer"] != compliance.Disclaimer {
		t.Fatalf("missing disclaimer: %v", out)
	}
	if out["compliant"] != false {
		t.Fatalf("expected non-compliant result for unapproved crop, got %v", out)
	}
	if len(out["warnings"].([]any)) < 2 {
		t.Fatalf("expected waterway and crop warnings, got %v", out["warnings"])
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/compliance", strings.NewReader(`{"productId":"45112"}`))
	req.Header.Set("Content-Type", "application/json")
	doJSON(t, app, req, http.StatusBadRequest)
}

func TestPermitCarriesDisclaimer(t *testing.T) {
	app := newTestApp()

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/permits?product=58890&state=VIC", nil), http.StatusOK)
	if out["permitRequired"] != true || out["disclaimer"] != compliance.Disclaimer {
		t.Fatalf("unexpected permit response: %v", out)
	}

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/permits?product=58890", nil), http.StatusBadRequest)
}

func TestRecommendation(t *testing.T) {
	app := newTestApp()

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/recommendation?postcode=2000&hint=oil", nil), http.StatusOK)
	if _, ok := out["recommended"].(bool); !ok {
		t.Fatalf("expected recommended flag, got %v", out)
	}
	if out["reason"] == "" {
		t.Fatal("expected a reason")
	}
}

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Fetch(_ context.Context, loc weather.Location) ([]weather.Forecast, error) {
	p.calls.Add(1)
	return []weather.Forecast{{
		PostalCode:   loc.PostalCode,
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TempMinC:     12,
		TempMaxC:     22,
		HumidityPct:  55,
		WindSpeedKph: 6,
	}}, nil
}

// The app keeps fiber's default mutable request buffers so the service itself
// must own the postcodes it stores.
func TestForecastCacheKeysSurviveLaterRequests(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	prov := &countingProvider{}
	forecasts := cache.New[[]weather.Forecast](time.Hour)
	svc := weather.NewService(forecasts, []weather.Provider{prov})
	reg := registry.NewClient(registry.Config{}, cache.New[[]registry.Product](time.Hour))
	RegisterRoutes(app, advisor.NewEngine(reg, svc, nil))

	postcodes := []string{"2000", "3000", "4000"}
	for round := 0; round < 2; round++ {
		for _, pc := range postcodes {
			out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast?postcode="+pc, nil), http.StatusOK)
			day := out["forecasts"].([]any)[0].(map[string]any)
			if day["postalCode"] != pc {
				t.Fatalf("round %d: expected forecast for %s, got %v", round, pc, day["postalCode"])
			}
		}
	}

	if got := prov.calls.Load(); got != 3 {
		t.Fatalf("expected 3 provider calls, got %d", got)
	}
	for _, pc := range postcodes {
		days, ok := forecasts.Get(pc)
		if !ok {
			t.Fatalf("expected cache hit for %s", pc)
		}
		if days[0].PostalCode != pc {
			t.Fatalf("cached forecast for %s carries postcode %q", pc, days[0].PostalCode)
		}
	}
}
