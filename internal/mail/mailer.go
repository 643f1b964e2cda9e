// Package mail sends transactional email over SMTP. Delivery happens only in
// the worker; the API never blocks on a mail server.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers plain-text email through one SMTP endpoint.
type Mailer struct {
	addr string
	auth smtp.Auth
	from string
}

// New creates a mailer for the given SMTP host. Auth is skipped when user is
// empty, which suits local debug relays.
func New(host string, port int, user, pass, from string) *Mailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &Mailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

// Send delivers one message.
func (m *Mailer) Send(to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
