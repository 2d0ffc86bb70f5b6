package smtp

import (
	"github.com/waw-schedule/backend/pkg/email"

	"github.com/go-gomail/gomail"
	"github.com/pkg/errors"
)

type SMTPSender struct {
	from string
	name string
	pass string
	host string
	port int
}

// NewSMTPSender sends as "name <from>", authenticating with from/pass.
func NewSMTPSender(from, name, pass, host string, port int) (*SMTPSender, error) {
	if !email.IsEmailValid(from) {
		return nil, errors.New("invalid from email")
	}

	if host == "" || port == 0 {
		return nil, errors.New("empty smtp host/port")
	}

	return &SMTPSender{from: from, name: name, pass: pass, host: host, port: port}, nil
}

func (s *SMTPSender) Send(input email.SendEmailInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.name)
	msg.SetHeader("To", input.To)
	msg.SetHeader("Subject", input.Subject)

	contentType := "text/html"
	if input.PlainText {
		contentType = "text/plain"
	}
	msg.SetBody(contentType, input.Body)

	dialer := gomail.NewDialer(s.host, s.port, s.from, s.pass)
	if err := dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "failed to sent email via smtp")
	}

	return nil
}
