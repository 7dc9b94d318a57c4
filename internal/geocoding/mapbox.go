package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/provider"
)

// Mapbox wraps the Mapbox forward geocoding API.
type Mapbox struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewMapbox creates a Mapbox client against baseURL (the mapbox.places endpoint).
func NewMapbox(baseURL, token string) *Mapbox {
	return &Mapbox{
		baseURL:    baseURL,
		token:      token,
		httpClient: newHTTPClient(),
	}
}

func (c *Mapbox) Name() string { return "mapbox" }

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lng, lat]
}

// Resolve geocodes addr, returning ErrNotFound on any failure.
func (c *Mapbox) Resolve(ctx context.Context, addr Address) (Coordinates, error) {
	coords, err := c.forward(ctx, addr.Query())
	if err != nil {
		provider.LogError(c.Name(), "geocode", err)
		return Coordinates{}, ErrNotFound
	}
	return coords, nil
}

func (c *Mapbox) forward(ctx context.Context, query string) (Coordinates, error) {
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("country", "us")
	params.Set("limit", "1")

	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	provider.LogRequest(c.Name(), http.MethodGet, c.baseURL, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The request URL carries the access token; keep it out of the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return Coordinates{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("mapbox returned HTTP %d", resp.StatusCode)
	}

	var body mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("decoding response: %w", err)
	}
	provider.LogResponse(c.Name(), resp.StatusCode, time.Since(start), len(body.Features))

	if len(body.Features) == 0 {
		return Coordinates{}, fmt.Errorf("no results for address")
	}
	center := body.Features[0].Center
	if len(center) != 2 {
		return Coordinates{}, fmt.Errorf("malformed center %v", center)
	}
	return Coordinates{Lat: center[1], Lng: center[0]}, nil
}
