// Package geocode resolves free-text place queries to named coordinates
// using a Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"spendlog/internal/cache"
	"spendlog/internal/core"
)

const (
	DefaultURL       = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "spendlog/1.0"
	MaxResults       = 5
	// MinQueryLength is the shortest query that is sent upstream.
	MinQueryLength = 3
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	UserAgent  string
	Language   string
	CacheSize  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client searches places. Identical concurrent queries share one upstream
// request and results are cached per normalized query.
type Client struct {
	baseURL   string
	userAgent string
	language  string
	http      *http.Client
	cache     *cache.LRUCache[[]core.Location]
	group     singleflight.Group
}

type result struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		http:      cfg.HTTPClient,
		cache:     cache.NewLRUCache[[]core.Location](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Cache exposes the result cache for periodic cleanup.
func (c *Client) Cache() *cache.LRUCache[[]core.Location] {
	return c.cache
}

// Search returns up to five candidate locations for query. Queries shorter
// than three characters return no candidates without a request.
func (c *Client) Search(ctx context.Context, query string) ([]core.Location, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < MinQueryLength {
		return []core.Location{}, nil
	}
	key := strings.ToLower(q)
	if locs, ok := c.cache.Get(key); ok {
		return locs, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		locs, err := c.fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, locs)
		return locs, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "Geocode request shared", "query", q)
	}
	return v.([]core.Location), nil
}

func (c *Client) fetch(ctx context.Context, q string) ([]core.Location, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse geocode url: %w", err)
	}
	params := u.Query()
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(MaxResults))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	locs := make([]core.Location, 0, min(len(results), MaxResults))
	for _, r := range results {
		if len(locs) == MaxResults {
			break
		}
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil || r.DisplayName == "" {
			continue
		}
		locs = append(locs, core.Location{Name: r.DisplayName, Lat: lat, Lng: lng})
	}

	slog.DebugContext(ctx, "Geocode lookup completed",
		"query", q, "results", len(locs), "duration_ms", time.Since(start).Milliseconds())
	return locs, nil
}
