package service

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer отправляет HTML-письма через обычный SMTP.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

// Send формирует MIME-сообщение и отправляет его получателю.
func (m *SMTPMailer) Send(address, subject, htmlBody string) error {
	if m.host == "" {
		return fmt.Errorf("mailer: SMTP не настроен")
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + address + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{address}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: отправка письма: %w", err)
	}
	return nil
}
