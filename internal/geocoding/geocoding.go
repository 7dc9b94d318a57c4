// Package geocoding turns a street address into coordinates using one
// configured external provider.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/config"
)

// ErrNotFound is returned for every failed lookup: no match, timeout, HTTP
// error or malformed response all collapse into it.
var ErrNotFound = errors.New("address not found")

// Address is the user-supplied location of a sale.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Query builds the single free-text query sent to the provider.
func (a Address) Query() string {
	return fmt.Sprintf("%s, %s, %s %s, USA", a.Street, a.City, a.State, a.Zip)
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Resolver resolves addresses to coordinates.
type Resolver interface {
	// Name returns the provider name for logging purposes.
	Name() string

	// Resolve returns the best match for addr or ErrNotFound.
	Resolve(ctx context.Context, addr Address) (Coordinates, error)
}

const defaultTimeout = 5 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// New builds the resolver selected by cfg.GeocodingProvider.
func New(cfg config.Config) (Resolver, error) {
	switch cfg.GeocodingProvider {
	case config.GeocoderNominatim:
		return NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent), nil
	case config.GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, config.ErrMissingMapboxToken
		}
		return NewMapbox(cfg.MapboxURL, cfg.MapboxToken), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownGeocoder, cfg.GeocodingProvider)
	}
}
