package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #2563eb;">Verify Your Garage Sale</h1>
  <p>Thanks for posting your garage sale: <strong>{{.Title}}</strong></p>
  <p>Click the button below to verify your listing and make it visible to shoppers:</p>
  <a href="{{.VerifyURL}}" style="display: inline-block; background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; margin: 16px 0;">Verify My Sale</a>
  <p style="color: #666; font-size: 14px;">Or copy this link: {{.VerifyURL}}</p>
  {{- if .ManageURL}}
  <hr style="border: none; border-top: 1px solid #eee; margin: 24px 0;">
  <p>Need to change the details or take the sale down? Keep this private link, anyone who has it can edit or delete your listing:</p>
  <p><a href="{{.ManageURL}}">{{.ManageURL}}</a></p>
  {{- end}}
  <hr style="border: none; border-top: 1px solid #eee; margin: 24px 0;">
  <p style="color: #999; font-size: 12px;">KC Garage Sales - Find great deals in the Kansas City metro area</p>
</div>
`))

var reportTmpl = template.Must(template.New("report").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #dc2626;">Sale Reported</h1>
  <p>A user has reported a garage sale listing.</p>
  <div style="background: #f3f4f6; padding: 16px; border-radius: 8px; margin: 16px 0;">
    <p><strong>Sale:</strong> {{.Title}}</p>
    <p><strong>Reason:</strong> {{.Reason}}</p>
    <p><strong>Link:</strong> <a href="{{.SaleURL}}">{{.SaleURL}}</a></p>
  </div>
  <p>To remove this listing, <a href="{{.AdminURL}}">go to the Admin Dashboard</a>.</p>
</div>
`))

type verificationData struct {
	Title     string
	VerifyURL string
	ManageURL string
}

type reportData struct {
	Title    string
	Reason   string
	SaleURL  string
	AdminURL string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// VerificationHTML renders the verification email body. The manage link is
// omitted when editToken is empty.
func VerificationHTML(baseURL, title, verificationToken, editToken string) (string, error) {
	data := verificationData{
		Title:     title,
		VerifyURL: baseURL + "/verify/" + verificationToken,
	}
	if editToken != "" {
		data.ManageURL = baseURL + "/manage/" + editToken
	}
	return render(verificationTmpl, data)
}

// ReportHTML renders the email sent to the administrator about a reported sale.
func ReportHTML(baseURL string, r Report) (string, error) {
	data := reportData{
		Title:    r.SaleTitle,
		Reason:   r.Reason,
		SaleURL:  baseURL + "/sale/" + r.SaleID,
		AdminURL: baseURL + "/admin",
	}
	if data.Title == "" {
		data.Title = "Unknown"
	}
	if data.Reason == "" {
		data.Reason = "No reason provided"
	}
	return render(reportTmpl, data)
}
