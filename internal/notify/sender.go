// Package notify sends the transactional emails: listing verification links
// to owners and listing reports to the administrator.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/config"
	"github.com/kcgaragesales/kc-garage-sales/internal/provider"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// ErrNoAdminEmail is returned by SendReport when no report recipient is configured.
var ErrNoAdminEmail = errors.New("ADMIN_EMAIL is not configured")

// Verification is the data for one verification email.
type Verification struct {
	To                string
	Title             string
	VerificationToken string
	EditToken         string
}

// Report is a user's complaint about a listing.
type Report struct {
	SaleID    string
	SaleTitle string
	Reason    string
}

// Sender delivers transactional email.
type Sender interface {
	SendVerification(ctx context.Context, v Verification) error
	SendReport(ctx context.Context, r Report) error
}

// New builds the sender selected by cfg.EmailProvider.
func New(cfg config.Config) (Sender, error) {
	switch cfg.EmailProvider {
	case config.EmailResend:
		if cfg.ResendAPIKey == "" {
			return nil, config.ErrMissingResendKey
		}
		client := resend.NewClient(cfg.ResendAPIKey)
		return NewResend(client.Emails, cfg.EmailFrom, cfg.PublicAppURL, cfg.AdminEmail), nil
	case config.EmailNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownEmailProvider, cfg.EmailProvider)
	}
}

// emailAPI is the part of the Resend client used here.
type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends email through the Resend API.
type Resend struct {
	api        emailAPI
	from       string
	baseURL    string
	adminEmail string
}

// NewResend wraps a Resend emails service. baseURL is the public site URL
// that links in the emails point at.
func NewResend(api emailAPI, from, baseURL, adminEmail string) *Resend {
	return &Resend{api: api, from: from, baseURL: baseURL, adminEmail: adminEmail}
}

func (s *Resend) send(ctx context.Context, to, subject, html string) error {
	start := time.Now()
	sent, err := s.api.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		provider.LogError("resend", "send", err)
		return fmt.Errorf("sending email: %w", err)
	}
	provider.LogResponse("resend", 200, time.Since(start), 1)
	log.Info().Str("email_id", sent.Id).Str("subject", subject).Msg("email sent")
	return nil
}

// SendVerification emails the verification link, plus the manage link when
// an edit token is present.
func (s *Resend) SendVerification(ctx context.Context, v Verification) error {
	html, err := VerificationHTML(s.baseURL, v.Title, v.VerificationToken, v.EditToken)
	if err != nil {
		return err
	}
	return s.send(ctx, v.To, "Verify your garage sale listing", html)
}

// SendReport emails the configured administrator about a reported listing.
func (s *Resend) SendReport(ctx context.Context, r Report) error {
	if s.adminEmail == "" {
		return ErrNoAdminEmail
	}
	html, err := ReportHTML(s.baseURL, r)
	if err != nil {
		return err
	}
	title := r.SaleTitle
	if title == "" {
		title = "Garage Sale"
	}
	return s.send(ctx, s.adminEmail, "Report: "+title, html)
}

// Noop drops every email. It backs EMAIL_PROVIDER=none deployments.
type Noop struct{}

func (Noop) SendVerification(ctx context.Context, v Verification) error {
	log.Info().Str("title", v.Title).Msg("email disabled, verification email not sent")
	return nil
}

func (Noop) SendReport(ctx context.Context, r Report) error {
	log.Info().Str("sale_id", r.SaleID).Msg("email disabled, report email not sent")
	return nil
}
