package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"
	"time"

	"github.com/go-api-otp/internal/domain"
	"github.com/go-api-otp/internal/infrastructure/smtp"
	"github.com/go-api-otp/internal/pkg/validate"
)

// ErrSMSDisabled is returned for phone identifiers when no SMS sender is wired.
var ErrSMSDisabled = fmt.Errorf("sms delivery not configured: %w", domain.ErrBadRequest)

type mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Dispatcher routes codes to SMS for E.164 identifiers and to email otherwise.
type Dispatcher struct {
	mailer  mailer
	sms     smsSender
	company string
	ttl     time.Duration
}

type DispatcherDeps struct {
	Mailer      mailer
	SMS         smsSender // nil disables SMS
	CompanyName string
	TTL         time.Duration
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		mailer:  deps.Mailer,
		sms:     deps.SMS,
		company: deps.CompanyName,
		ttl:     deps.TTL,
	}
}

type codeData struct {
	Company string
	Code    string
	Minutes int
	Year    int
}

func (d *Dispatcher) SendCode(ctx context.Context, identifier, code string) error {
	data := codeData{
		Company: d.company,
		Code:    code,
		Minutes: minutes(d.ttl),
		Year:    time.Now().Year(),
	}

	if validate.IsPhone(identifier) {
		if d.sms == nil {
			return ErrSMSDisabled
		}
		body, err := render(smsTmpl, data)
		if err != nil {
			return err
		}
		if err := d.sms.SendSMS(ctx, identifier, body); err != nil {
			return fmt.Errorf("send sms: %w", err)
		}
		slog.InfoContext(ctx, "otp sms sent", "to", identifier)
		return nil
	}

	text, err := render(textTmpl, data)
	if err != nil {
		return err
	}
	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	err = d.mailer.Send(ctx, smtp.Message{
		To:       []string{identifier},
		Subject:  fmt.Sprintf("Your %s verification code", d.company),
		TextBody: text,
		HTMLBody: html.String(),
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	slog.InfoContext(ctx, "otp email sent", "to", identifier)
	return nil
}

func minutes(ttl time.Duration) int {
	m := int((ttl + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

func render(t *texttemplate.Template, data codeData) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

var (
	smsTmpl = texttemplate.Must(texttemplate.New("sms").Parse(
		`{{.Company}}: your verification code is {{.Code}}. It expires in {{.Minutes}} min.`))

	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(`Your {{.Company}} verification code is {{.Code}}.

It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.

(c) {{.Year}} {{.Company}}
`))

	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; padding: 24px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0;">{{.Company}}</h1>
  </div>
  <div style="background: #f8f9fa; padding: 24px; border-radius: 0 0 10px 10px;">
    <p style="color: #333;">Your verification code is:</p>
    <p style="font-size: 32px; letter-spacing: 6px; font-weight: bold; text-align: center;">{{.Code}}</p>
    <p style="color: #666;">It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
    <p style="color: #999; font-size: 12px; text-align: center;">&copy; {{.Year}} {{.Company}}</p>
  </div>
</div>`))
)
