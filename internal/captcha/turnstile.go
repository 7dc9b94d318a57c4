// Package captcha verifies anti-bot tokens posted with a submission.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/provider"
)

// Verifier checks a client-supplied captcha token.
type Verifier interface {
	// Verify reports whether token passed; any error counts as a failure.
	Verify(ctx context.Context, token string) bool
}

// Turnstile verifies tokens with Cloudflare Turnstile's siteverify endpoint.
type Turnstile struct {
	verifyURL  string
	secret     string
	httpClient *http.Client
}

// NewTurnstile creates a verifier posting to verifyURL with secret.
func NewTurnstile(verifyURL, secret string) *Turnstile {
	return &Turnstile{
		verifyURL: verifyURL,
		secret:    secret,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts {secret, response} and returns the success flag.
func (t *Turnstile) Verify(ctx context.Context, token string) bool {
	ok, err := t.siteverify(ctx, token)
	if err != nil {
		provider.LogError("turnstile", "verify", err)
		return false
	}
	return ok
}

func (t *Turnstile) siteverify(ctx context.Context, token string) (bool, error) {
	form := url.Values{}
	form.Set("secret", t.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("siteverify returned HTTP %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	provider.LogResponse("turnstile", resp.StatusCode, time.Since(start), 1)

	if !body.Success && len(body.ErrorCodes) > 0 {
		provider.LogError("turnstile", "verify", fmt.Errorf("rejected: %s", strings.Join(body.ErrorCodes, ",")))
	}
	return body.Success, nil
}
