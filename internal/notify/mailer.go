// Package notify sends workflow emails over SMTP.
package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type Mailer struct {
	config Config
	server string
	auth   smtp.Auth
}

func NewMailer(config Config) *Mailer {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	return &Mailer{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// Configured reports whether enough SMTP settings are present to send.
func (m *Mailer) Configured() bool {
	return m.config.Host != "" && m.config.Port != "" && m.config.From != ""
}

// Send delivers an HTML email, optionally with a single attachment.
func (m *Mailer) Send(to []string, subject, htmlBody string, attachment []byte, filename string) error {
	if !m.Configured() {
		return fmt.Errorf("email not configured")
	}
	msg := m.buildMessage(to, subject, htmlBody, attachment, filename)
	return smtp.SendMail(m.server, m.auth, m.config.From, to, msg)
}

func (m *Mailer) buildMessage(to []string, subject, htmlBody string, attachment []byte, filename string) []byte {
	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}

	boundary := "boundary-procurement"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)

	if len(attachment) > 0 && filename != "" {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: application/pdf; name=%q\r\n", filename)
		fmt.Fprintf(&msg, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=%q\r\n", filename)
		fmt.Fprintf(&msg, "\r\n")

		encoded := base64.StdEncoding.EncodeToString(attachment)
		// 76-char lines per RFC 2045
		for len(encoded) > 76 {
			msg.WriteString(encoded[:76])
			msg.WriteString("\r\n")
			encoded = encoded[76:]
		}
		msg.WriteString(encoded)
		msg.WriteString("\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}
