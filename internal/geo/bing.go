// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/knockwatch/internal/models"
)

// ErrRemoteDisabled is returned when no Bing Maps key is configured.
var ErrRemoteDisabled = errors.New("remote geocoding disabled")

// BingConfig configures BingGeocoder.
type BingConfig struct {
	BaseURL    string // default http://dev.virtualearth.net/REST/v1/Locations
	Key        string // empty disables the geocoder
	Culture    string // default en-US; country matching relies on English names
	MaxResults int    // default 5
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    BreakerSettings
}

// BingGeocoder queries the Bing Maps Locations API by free-text city name.
type BingGeocoder struct {
	client     *http.Client
	baseURL    string
	key        string
	culture    string
	maxResults int
	timeout    time.Duration
	breaker    *Breaker
}

type bingResponse struct {
	StatusCode   int `json:"statusCode"`
	ResourceSets []struct {
		Resources []bingResource `json:"resources"`
	} `json:"resourceSets"`
}

type bingResource struct {
	Point struct {
		Coordinates []float64 `json:"coordinates"` // [lat, lon]
	} `json:"point"`
	Address struct {
		CountryRegion string `json:"countryRegion"`
		AdminDistrict string `json:"adminDistrict"`
	} `json:"address"`
}

// NewBingGeocoder creates a geocoder from cfg.
func NewBingGeocoder(cfg BingConfig) *BingGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://dev.virtualearth.net/REST/v1/Locations"
	}
	if cfg.Culture == "" {
		cfg.Culture = "en-US"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &BingGeocoder{
		client:     client,
		baseURL:    cfg.BaseURL,
		key:        cfg.Key,
		culture:    cfg.Culture,
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout,
		breaker:    NewBreaker("bing-maps", cfg.Breaker),
	}
}

// Name returns the geocoder name.
func (g *BingGeocoder) Name() string {
	return "bing-maps"
}

// Enabled reports whether a key is configured.
func (g *BingGeocoder) Enabled() bool {
	return g.key != ""
}

// Geocode returns the ranked candidates for query. An empty result set is
// ErrNotFound.
func (g *BingGeocoder) Geocode(ctx context.Context, query string) ([]models.GeoEntry, error) {
	if !g.Enabled() {
		return nil, ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := castResult[[]models.GeoEntry](g.breaker.execute(func() (interface{}, error) {
		return g.query(ctx, query)
	}))
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (g *BingGeocoder) query(ctx context.Context, query string) (*[]models.GeoEntry, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", g.key)
	params.Set("maxResults", strconv.Itoa(g.maxResults))
	params.Set("culture", g.culture)
	params.Set("includeNeighborhood", "1")
	params.Set("include", "queryParse")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query bing maps: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bing maps returned status %d", resp.StatusCode)
	}

	var result bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode bing maps response: %w", err)
	}
	if result.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing maps reported status %d", result.StatusCode)
	}
	if len(result.ResourceSets) == 0 || len(result.ResourceSets[0].Resources) == 0 {
		return nil, fmt.Errorf("%w: no bing maps results for %q", ErrNotFound, query)
	}

	candidates := make([]models.GeoEntry, 0, len(result.ResourceSets[0].Resources))
	for _, r := range result.ResourceSets[0].Resources {
		if len(r.Point.Coordinates) < 2 {
			continue
		}
		candidates = append(candidates, models.GeoEntry{
			Lat:       r.Point.Coordinates[0],
			Lon:       r.Point.Coordinates[1],
			Country:   r.Address.CountryRegion,
			AdminArea: r.Address.AdminDistrict,
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: bing maps results for %q carry no coordinates", ErrNotFound, query)
	}
	return &candidates, nil
}
