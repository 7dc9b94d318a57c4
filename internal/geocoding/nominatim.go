package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/provider"
	"golang.org/x/time/rate"
)

// Nominatim wraps the OpenStreetMap Nominatim search API.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	// The public instance allows one request per second per application.
	limiter *rate.Limiter
}

// NewNominatim creates a Nominatim client against baseURL (the /search endpoint).
func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: newHTTPClient(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (c *Nominatim) Name() string { return "nominatim" }

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve geocodes addr, returning ErrNotFound on any failure.
func (c *Nominatim) Resolve(ctx context.Context, addr Address) (Coordinates, error) {
	coords, err := c.search(ctx, addr.Query())
	if err != nil {
		provider.LogError(c.Name(), "geocode", err)
		return Coordinates{}, ErrNotFound
	}
	return coords, nil
}

func (c *Nominatim) search(ctx context.Context, query string) (Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Coordinates{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	provider.LogRequest(c.Name(), http.MethodGet, c.baseURL, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("nominatim returned HTTP %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("decoding response: %w", err)
	}
	provider.LogResponse(c.Name(), resp.StatusCode, time.Since(start), len(places))

	if len(places) == 0 {
		return Coordinates{}, fmt.Errorf("no results for address")
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lon %q: %w", places[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}
