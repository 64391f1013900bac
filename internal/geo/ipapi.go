// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/knockwatch/internal/models"
)

// ErrPrivateAddress is returned for peers that cannot be geolocated.
var ErrPrivateAddress = errors.New("private or local address")

// IPAPIConfig configures IPAPIProvider.
type IPAPIConfig struct {
	BaseURL           string // default http://ip-api.com/json
	RequestsPerMinute int    // default 45, the free tier limit
	Timeout           time.Duration
	HTTPClient        *http.Client
	Breaker           BreakerSettings
}

// IPAPIProvider resolves source addresses through the free ip-api.com
// endpoint. Calls are paced by a token bucket and run behind the "ip-api"
// circuit breaker.
type IPAPIProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	timeout time.Duration
	breaker *Breaker
}

type ipAPIResponse struct {
	Status     string  `json:"status"`  // "success" or "fail"
	Message    string  `json:"message"` // reason when status is "fail"
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

const ipAPIFields = "status,message,country,regionName,city,lat,lon"

// NewIPAPIProvider creates a provider from cfg.
func NewIPAPIProvider(cfg IPAPIConfig) *IPAPIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://ip-api.com/json"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 45
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	perRequest := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &IPAPIProvider{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(perRequest), cfg.RequestsPerMinute),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		breaker: NewBreaker("ip-api", cfg.Breaker),
	}
}

// Name returns the provider name.
func (p *IPAPIProvider) Name() string {
	return "ip-api.com"
}

// Lookup returns the location of ipAddress. Failures are ErrPrivateAddress,
// ErrNotFound (the service answered without a city) or a transient error.
// Waiting for a rate-limit token counts against the lookup timeout.
func (p *IPAPIProvider) Lookup(ctx context.Context, ipAddress string) (*models.IPLocation, error) {
	ipAddress = NormalizeIP(ipAddress)
	if net.ParseIP(ipAddress) == nil {
		return nil, fmt.Errorf("invalid IP address: %q", ipAddress)
	}
	if IsPrivateIP(ipAddress) {
		return nil, ErrPrivateAddress
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ip-api.com rate limit wait: %w", err)
	}

	return castResult[models.IPLocation](p.breaker.execute(func() (interface{}, error) {
		return p.query(ctx, ipAddress)
	}))
}

func (p *IPAPIProvider) query(ctx context.Context, ipAddress string) (*models.IPLocation, error) {
	url := fmt.Sprintf("%s/%s?fields=%s", p.baseURL, ipAddress, ipAPIFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query ip-api.com: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ip-api.com response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("%w: ip-api.com: %s", ErrNotFound, result.Message)
	}
	if strings.TrimSpace(result.City) == "" {
		return nil, fmt.Errorf("%w: ip-api.com returned no city for %s", ErrNotFound, ipAddress)
	}

	return &models.IPLocation{
		IP:      ipAddress,
		City:    result.City,
		Region:  result.RegionName,
		Country: result.Country,
		Lat:     result.Lat,
		Lon:     result.Lon,
	}, nil
}
