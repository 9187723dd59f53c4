package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	mail "gopkg.in/mail.v2"
)

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPMailer struct {
	fromEmail string
	dialer    sender
	backoff   time.Duration
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	if fromEmail == "" {
		return nil, errors.New("from email is required")
	}

	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second

	return &SMTPMailer{fromEmail: fromEmail, dialer: d, backoff: time.Second}, nil
}

// Send renders templateFile and delivers it, retrying with a growing delay.
// It returns the number of attempts made.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return 0, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return 0, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return 0, err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	if username != "" {
		msg.SetAddressHeader("To", email, username)
	} else {
		msg.SetHeader("To", email)
	}
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	var lastErr error
	for i := 0; i < maxRetires; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return i + 1, nil
		}
		if i < maxRetires-1 {
			time.Sleep(m.backoff * time.Duration(i+1))
		}
	}

	return maxRetires, fmt.Errorf("failed to send email after %d attempts: %w", maxRetires, lastErr)
}
