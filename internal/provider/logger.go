// Package provider holds the logging helpers shared by the external service
// clients (geocoding, captcha, email, photo storage).
package provider

import (
	"time"

	"github.com/rs/zerolog/log"
)

// LogRequest logs an API request being made. Callers must not pass secrets
// (API keys, tokens) in params.
func LogRequest(provider, method, url string, params map[string]interface{}) {
	ev := log.Debug().Str("provider", provider).Str("method", method).Str("url", url)
	if len(params) > 0 {
		ev = ev.Interface("params", params)
	}
	ev.Msg("external request")
}

// LogResponse logs an API response received.
func LogResponse(provider string, statusCode int, duration time.Duration, resultCount int) {
	log.Debug().
		Str("provider", provider).
		Int("status", statusCode).
		Int64("duration_ms", duration.Milliseconds()).
		Int("results", resultCount).
		Msg("external response")
}

// LogError logs an error from an API operation.
func LogError(provider, operation string, err error) {
	log.Warn().Err(err).Str("provider", provider).Str("operation", operation).Msg("external call failed")
}
