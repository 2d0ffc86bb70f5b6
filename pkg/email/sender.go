package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
)

// TemplatesDir is where GenerateBodyFromHTML looks for templates.
var TemplatesDir = "./templates"

type SendEmailInput struct {
	To      string
	Subject string
	Body    string
	// PlainText marks Body as text/plain instead of text/html.
	PlainText bool
}

type Sender interface {
	Send(input SendEmailInput) error
}

func (e *SendEmailInput) GenerateBodyFromHTML(templateFileName string, data interface{}) error {
	t, err := template.ParseFiles(filepath.Join(TemplatesDir, templateFileName))
	if err != nil {
		return fmt.Errorf("parse file failed: %w", err)
	}

	buf := new(bytes.Buffer)
	if err = t.Execute(buf, data); err != nil {
		return fmt.Errorf("email data injection failed: %w", err)
	}

	e.Body = buf.String()
	e.PlainText = false

	return nil
}

func (e *SendEmailInput) Validate() error {
	if e.To == "" {
		return errors.New("empty to")
	}

	if e.Subject == "" || e.Body == "" {
		return errors.New("empty subject/body")
	}

	if !IsEmailValid(e.To) {
		return errors.New("invalid to email")
	}

	return nil
}
