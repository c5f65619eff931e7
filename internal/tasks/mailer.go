package tasks

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/mail.v2"
)

// Sender delivers a rendered e-mail
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends e-mails through an SMTP server
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given SMTP server
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send sends an HTML e-mail
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type emailLayout struct {
	subject string
	body    *template.Template
}

var layouts = map[EmailTemplate]emailLayout{
	EmailWelcome: {
		subject: "Welcome to LingoRoots",
		body: template.Must(template.New("welcome").Parse(
			`<p>Hi {{.name}},</p><p>Your LingoRoots account is ready. Pick a language and start your first lesson!</p>`)),
	},
	EmailPasswordReset: {
		subject: "Reset your LingoRoots password",
		body: template.Must(template.New("password_reset").Parse(
			`<p>Hi {{.name}},</p><p>Follow <a href="{{.link}}">this link</a> to choose a new password. It expires in one hour.</p>` +
				`<p>If you did not ask for a reset you can ignore this e-mail.</p>`)),
	},
	EmailAchievement: {
		subject: "You earned a new badge",
		body: template.Must(template.New("achievement").Parse(
			`<p>Congratulations {{.name}}!</p><p>You earned <strong>{{.achievement}}</strong>: {{.description}}</p>`)),
	},
}

// Render builds subject and body of an e-mail. Data values are HTML escaped.
func Render(t EmailTemplate, data map[string]string) (string, string, error) {
	layout, ok := layouts[t]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", t)
	}
	var buf bytes.Buffer
	if err := layout.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s email: %w", t, err)
	}
	return layout.subject, buf.String(), nil
}
