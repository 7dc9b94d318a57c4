// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// GeocodingProvider identifies which geocoding API resolves addresses.
type GeocodingProvider string

const (
	GeocoderNominatim GeocodingProvider = "nominatim"
	GeocoderMapbox    GeocodingProvider = "mapbox"
)

// EmailProvider identifies which transactional email API sends mail.
type EmailProvider string

const (
	EmailResend EmailProvider = "resend"
	EmailNone   EmailProvider = "none"
)

// Common errors
var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL environment variable is required")
	ErrMissingPublicURL     = errors.New("PUBLIC_APP_URL environment variable is required")
	ErrMissingResendKey     = errors.New("RESEND_API_KEY environment variable is required for resend email provider")
	ErrMissingMapboxToken   = errors.New("MAPBOX_TOKEN environment variable is required for mapbox geocoding provider")
	ErrMissingCaptchaSecret = errors.New("TURNSTILE_SECRET environment variable is required when captcha is enabled")
	ErrMissingBucket        = errors.New("STORAGE_BUCKET environment variable is required when photo upload is enabled")
	ErrMissingAdminHash     = errors.New("ADMIN_PASSWORD_HASH environment variable is required")
	ErrUnknownGeocoder      = errors.New("unknown geocoding provider")
	ErrUnknownEmailProvider = errors.New("unknown email provider")
)

// Config holds every setting the server and CLIs read from the environment.
type Config struct {
	Port         string   `envconfig:"PORT" default:"5050"`
	DatabaseURL  string   `envconfig:"DATABASE_URL"`
	PublicAppURL string   `envconfig:"PUBLIC_APP_URL" default:"http://localhost:5173"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty    bool     `envconfig:"LOG_PRETTY" default:"false"`
	Timezone     string   `envconfig:"TIMEZONE" default:"America/Chicago"`
	AllowOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// Submission workflow switches
	CaptchaEnabled     bool              `envconfig:"CAPTCHA_ENABLED" default:"true"`
	PhotoUploadEnabled bool              `envconfig:"PHOTO_UPLOAD_ENABLED" default:"true"`
	GeocodingProvider  GeocodingProvider `envconfig:"GEOCODING_PROVIDER" default:"nominatim"`
	EmailProvider      EmailProvider     `envconfig:"EMAIL_PROVIDER" default:"resend"`

	// Email
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"KC Garage Sales <onboarding@resend.dev>"`
	AdminEmail   string `envconfig:"ADMIN_EMAIL"`

	// Admin access
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`

	// Captcha
	TurnstileSecret    string `envconfig:"TURNSTILE_SECRET"`
	TurnstileVerifyURL string `envconfig:"TURNSTILE_VERIFY_URL" default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`

	// Geocoding
	NominatimURL       string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org/search"`
	NominatimUserAgent string `envconfig:"NOMINATIM_USER_AGENT" default:"KCGarageSales/1.0"`
	MapboxToken        string `envconfig:"MAPBOX_TOKEN"`
	MapboxURL          string `envconfig:"MAPBOX_URL" default:"https://api.mapbox.com/geocoding/v5/mapbox.places"`

	// Photo storage
	StorageBucket        string `envconfig:"STORAGE_BUCKET" default:"sale-photos"`
	StoragePublicBaseURL string `envconfig:"STORAGE_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	StorageCredentials   string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS_FILE"`
	MaxPhotos            int    `envconfig:"MAX_PHOTOS" default:"10"`
	MaxPhotoBytes        int64  `envconfig:"MAX_PHOTO_BYTES" default:"5242880"`
}

// LoadFromEnv decodes the environment into a Config. It does not validate
// provider credentials; call Validate for that.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	cfg.GeocodingProvider = GeocodingProvider(strings.ToLower(strings.TrimSpace(string(cfg.GeocodingProvider))))
	cfg.EmailProvider = EmailProvider(strings.ToLower(strings.TrimSpace(string(cfg.EmailProvider))))
	cfg.PublicAppURL = strings.TrimRight(cfg.PublicAppURL, "/")
	cfg.StoragePublicBaseURL = strings.TrimRight(cfg.StoragePublicBaseURL, "/")

	return cfg, nil
}

// Validate checks that every enabled provider has the settings it needs.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.PublicAppURL == "" {
		return ErrMissingPublicURL
	}
	if c.AdminPasswordHash == "" {
		return ErrMissingAdminHash
	}

	switch c.GeocodingProvider {
	case GeocoderNominatim:
	case GeocoderMapbox:
		if c.MapboxToken == "" {
			return ErrMissingMapboxToken
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGeocoder, c.GeocodingProvider)
	}

	switch c.EmailProvider {
	case EmailNone:
	case EmailResend:
		if c.ResendAPIKey == "" {
			return ErrMissingResendKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEmailProvider, c.EmailProvider)
	}

	if c.CaptchaEnabled && c.TurnstileSecret == "" {
		return ErrMissingCaptchaSecret
	}
	if c.PhotoUploadEnabled && c.StorageBucket == "" {
		return ErrMissingBucket
	}
	return nil
}

// Location returns the time zone that defines "today" for listing visibility.
// An unknown zone falls back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
