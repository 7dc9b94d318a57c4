package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kcgaragesales/kc-garage-sales/internal/config"
	"github.com/resend/resend-go/v2"
)

type fakeAPI struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeAPI) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

const baseURL = "https://kcgaragesales.example"

func TestSendVerificationIncludesBothLinks(t *testing.T) {
	api := &fakeAPI{}
	s := NewResend(api, "KC Garage Sales <hi@example.com>", baseURL, "admin@example.com")

	err := s.SendVerification(context.Background(), Verification{
		To:                "a@b.com",
		Title:             "Yard Sale",
		VerificationToken: "verify123",
		EditToken:         "edit456",
	})
	if err != nil {
		t.Fatalf("SendVerification: %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(api.sent))
	}

	msg := api.sent[0]
	if len(msg.To) != 1 || msg.To[0] != "a@b.com" {
		t.Errorf("unexpected recipients %v", msg.To)
	}
	if msg.From != "KC Garage Sales <hi@example.com>" {
		t.Errorf("unexpected from %q", msg.From)
	}
	if !strings.Contains(msg.Html, baseURL+"/verify/verify123") {
		t.Error("expected verification link in body")
	}
	if !strings.Contains(msg.Html, baseURL+"/manage/edit456") {
		t.Error("expected manage link in body")
	}
}

func TestVerificationHTMLOmitsManageLinkWithoutEditToken(t *testing.T) {
	html, err := VerificationHTML(baseURL, "Yard Sale", "verify123", "")
	if err != nil {
		t.Fatalf("VerificationHTML: %v", err)
	}
	if strings.Contains(html, "/manage/") {
		t.Error("expected no manage link")
	}
}

func TestVerificationHTMLEscapesTitle(t *testing.T) {
	html, err := VerificationHTML(baseURL, `<script>alert(1)</script>`, "v", "e")
	if err != nil {
		t.Fatalf("VerificationHTML: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("expected title to be escaped")
	}
}

func TestSendVerificationPropagatesError(t *testing.T) {
	s := NewResend(&fakeAPI{err: errors.New("rate limited")}, "from", baseURL, "")
	if err := s.SendVerification(context.Background(), Verification{To: "a@b.com"}); err == nil {
		t.Fatal("expected error from failing api")
	}
}

func TestSendReport(t *testing.T) {
	api := &fakeAPI{}
	s := NewResend(api, "from", baseURL, "admin@example.com")

	if err := s.SendReport(context.Background(), Report{SaleID: "abc", Reason: "spam"}); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	msg := api.sent[0]
	if msg.To[0] != "admin@example.com" {
		t.Errorf("expected admin recipient, got %v", msg.To)
	}
	if msg.Subject != "Report: Garage Sale" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Html, baseURL+"/sale/abc") || !strings.Contains(msg.Html, "spam") {
		t.Error("expected sale link and reason in body")
	}
}

func TestSendReportWithoutAdminEmail(t *testing.T) {
	s := NewResend(&fakeAPI{}, "from", baseURL, "")
	if err := s.SendReport(context.Background(), Report{SaleID: "abc"}); !errors.Is(err, ErrNoAdminEmail) {
		t.Fatalf("expected ErrNoAdminEmail, got %v", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	s, err := New(config.Config{EmailProvider: config.EmailNone})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(Noop); !ok {
		t.Errorf("expected Noop sender, got %T", s)
	}

	if _, err := New(config.Config{EmailProvider: config.EmailResend}); !errors.Is(err, config.ErrMissingResendKey) {
		t.Errorf("expected ErrMissingResendKey, got %v", err)
	}
	if _, err := New(config.Config{EmailProvider: "smtp"}); !errors.Is(err, config.ErrUnknownEmailProvider) {
		t.Errorf("expected ErrUnknownEmailProvider, got %v", err)
	}
}

func TestSendVerificationHonorsCancelledContext(t *testing.T) {
	api := &fakeAPI{}
	s := NewResend(api, "hi@example.com", baseURL, "admin@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.SendVerification(ctx, Verification{To: "a@b.com", Title: "Yard Sale", VerificationToken: "v"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(api.sent) != 0 {
		t.Errorf("expected no email sent, got %d", len(api.sent))
	}
}
