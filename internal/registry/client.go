package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/i474232898/spray-advisory/internal/cache"
	"github.com/i474232898/spray-advisory/internal/resilience"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// lookupLimit is the page size used when resolving a single registration number.
	lookupLimit = 5

	maxBodyBytes = 4 << 20
)

var (
	errRegistryRejected = errors.New("registry reported failure")
	errMalformed        = errors.New("malformed registry payload")
)

// Config holds the registry endpoint and outbound limits.
type Config struct {
	BaseURL       string // CKAN datastore_search endpoint
	ResourceID    string
	HTTP          resilience.HTTPClientConfig
	RatePerSecond float64
	Timeout       time.Duration
}

// Client searches the chemical product registry. It never fails: remote
// problems are answered from the built-in fallback catalog.
type Client struct {
	baseURL    string
	resourceID string
	httpCfg    resilience.HTTPClientConfig
	circuit    *gobreaker.CircuitBreaker
	timeout    time.Duration

	cache *cache.TTLCache[[]Product]
	group singleflight.Group
}

// NewClient creates a registry Client that stores successful searches in c.
func NewClient(cfg Config, c *cache.TTLCache[[]Product]) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	httpCfg := cfg.HTTP
	httpCfg.Limiter = rate.NewLimiter(limit, 1)
	return &Client{
		baseURL:    cfg.BaseURL,
		resourceID: cfg.ResourceID,
		httpCfg:    httpCfg,
		circuit:    resilience.NewBreaker("registry"),
		timeout:    cfg.Timeout,
		cache:      c,
	}
}

// Search returns up to limit products matching query. Empty queries yield an
// empty result without contacting the registry.
func (c *Client) Search(ctx context.Context, query string, limit int) []Product {
	q := normalizeQuery(query)
	if q == "" {
		return []Product{}
	}
	limit = clampLimit(limit)
	key := q + "|" + strconv.Itoa(limit)

	if products, ok := c.cache.Get(key); ok {
		return cloneProducts(products)
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		products, err := c.fetch(context.WithoutCancel(ctx), q, limit)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, products)
		return products, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			log.Printf("ERROR: registry search %q failed, serving fallback catalog: %v", q, res.Err)
			return FallbackSearch(q, limit)
		}
		return cloneProducts(res.Val.([]Product))
	case <-ctx.Done():
		log.Printf("INFO: registry caller gave up on %q: %v", q, ctx.Err())
		return FallbackSearch(q, limit)
	}
}

// GetByRegistrationNumber resolves a single product by its exact registration number.
func (c *Client) GetByRegistrationNumber(ctx context.Context, id string) (Product, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, false
	}
	for _, p := range c.Search(ctx, id, lookupLimit) {
		if strings.EqualFold(strings.TrimSpace(p.RegistrationNumber), id) {
			return p, true
		}
	}
	return Product{}, false
}

func (c *Client) fetch(ctx context.Context, q string, limit int) ([]Product, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: registry url not configured", errRegistryRejected)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	values := url.Values{}
	if c.resourceID != "" {
		values.Set("resource_id", c.resourceID)
	}
	values.Set("q", q)
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", "0")

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	resp, err := resilience.Get(ctx, c.httpCfg, c.circuit, c.baseURL+sep+values.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return parseSearchResponse(body, limit)
}

// parseSearchResponse reads a CKAN datastore_search payload. A bare array of
// records is also accepted.
func parseSearchResponse(body []byte, limit int) ([]Product, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformed
	}
	doc := gjson.ParseBytes(body)

	var records gjson.Result
	switch {
	case doc.IsArray():
		records = doc
	default:
		if s := doc.Get("success"); s.Exists() && !s.Bool() {
			return nil, fmt.Errorf("%w: %s", errRegistryRejected, doc.Get("error.message").String())
		}
		records = doc.Get("result.records")
		if !records.Exists() {
			records = doc.Get("records")
		}
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("%w: no records array", errMalformed)
	}

	products := []Product{}
	for _, rec := range records.Array() {
		if len(products) >= limit {
			break
		}
		if !rec.IsObject() {
			continue
		}
		if p, ok := normalizeRecord(rec); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// normalizeQuery returns an owned copy; the result is used as a cache key.
func normalizeQuery(q string) string {
	return strings.Clone(strings.ToLower(strings.Join(strings.Fields(q), " ")))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
