package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	"net/url"
	ttemplate "text/template"
	"time"
)

// Mailer compone los emails transaccionales sobre un Sender.
type Mailer struct {
	sender  Sender
	baseURL string // ej: https://id.example.com

	confirmHTML *htemplate.Template
	confirmText *ttemplate.Template
	resetHTML   *htemplate.Template
	resetText   *ttemplate.Template
}

// NewMailer crea un Mailer con los templates por defecto.
func NewMailer(sender Sender, baseURL string) *Mailer {
	return &Mailer{
		sender:      sender,
		baseURL:     baseURL,
		confirmHTML: htemplate.Must(htemplate.New("confirm_html").Parse(confirmHTML)),
		confirmText: ttemplate.Must(ttemplate.New("confirm_text").Parse(confirmText)),
		resetHTML:   htemplate.Must(htemplate.New("reset_html").Parse(resetHTML)),
		resetText:   ttemplate.Must(ttemplate.New("reset_text").Parse(resetText)),
	}
}

// SendConfirmation envía el email de confirmación de cuenta.
// El link lleva userId y code como query params.
func (m *Mailer) SendConfirmation(to, name, userID, code string, ttl time.Duration) error {
	link := fmt.Sprintf("%s/confirm-email?%s", m.baseURL, url.Values{
		"userId": {userID},
		"code":   {code},
	}.Encode())

	vars := linkVars{Name: displayName(name, to), Link: link, TTL: humanTTL(ttl)}
	html, text, err := render(m.confirmHTML, m.confirmText, vars)
	if err != nil {
		return err
	}
	return m.sender.Send(to, confirmSubject, html, text)
}

// SendPasswordReset envía el email de reset de password.
func (m *Mailer) SendPasswordReset(to, name, userID, code string, ttl time.Duration) error {
	link := fmt.Sprintf("%s/reset-password?%s", m.baseURL, url.Values{
		"userId": {userID},
		"code":   {code},
	}.Encode())

	vars := linkVars{Name: displayName(name, to), Link: link, TTL: humanTTL(ttl)}
	html, text, err := render(m.resetHTML, m.resetText, vars)
	if err != nil {
		return err
	}
	return m.sender.Send(to, resetSubject, html, text)
}

func render(h *htemplate.Template, t *ttemplate.Template, vars linkVars) (string, string, error) {
	var hb, tb bytes.Buffer
	if err := h.Execute(&hb, vars); err != nil {
		return "", "", fmt.Errorf("email: render html: %w", err)
	}
	if err := t.Execute(&tb, vars); err != nil {
		return "", "", fmt.Errorf("email: render text: %w", err)
	}
	return hb.String(), tb.String(), nil
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func humanTTL(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d horas", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutos", int(d.Minutes()))
}
