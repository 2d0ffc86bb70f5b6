package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waw-schedule/backend/internal/config"
	emailProvider "github.com/waw-schedule/backend/pkg/email"
	mock_email "github.com/waw-schedule/backend/pkg/email/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func emailConfig(env string) *config.Config {
	return &config.Config{
		Env: env,
		Auth: config.AuthConfig{
			CodeValidMinutes: "5",
		},
		Email: config.EmailConfig{
			Enabled: true,
			Templates: config.EmailTemplates{
				Verification:  "email_verification.html",
				EmailChange:   "email_change.html",
				PasswordReset: "password_reset.html",
			},
		},
	}
}

func withTemplatesDir(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	prev := emailProvider.TemplatesDir
	emailProvider.TemplatesDir = dir
	t.Cleanup(func() { emailProvider.TemplatesDir = prev })
}

func TestEmailService_SendCodeRendersTemplate(t *testing.T) {
	withTemplatesDir(t, map[string]string{
		"email_verification.html": `<p>Hi {{.Name}}, your code is {{.Code}}, valid for {{.ValidMinutes}} minutes</p>`,
	})

	sender := new(mock_email.EmailSender)
	sender.On("Send", mock.MatchedBy(func(in emailProvider.SendEmailInput) bool {
		return in.To == "ronaldo@mail.com" &&
			strings.HasSuffix(in.Subject, "AB12CD") &&
			in.Body == "<p>Hi Cristiano, your code is AB12CD, valid for 5 minutes</p>" &&
			!in.PlainText
	})).Return(nil).Once()

	svc := newEmailsService(sender, emailConfig(config.EnvLocal))
	err := svc.SendCode(context.Background(), CodeEmailInput{
		Kind:  EmailKindVerification,
		Email: "ronaldo@mail.com",
		Name:  "Cristiano",
		Code:  "AB12CD",
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestEmailService_FallsBackToPlainText(t *testing.T) {
	withTemplatesDir(t, nil)

	sender := new(mock_email.EmailSender)
	sender.On("Send", mock.MatchedBy(func(in emailProvider.SendEmailInput) bool {
		return in.PlainText && strings.Contains(in.Body, "XY98ZW") && strings.Contains(in.Subject, "reset")
	})).Return(nil).Once()

	svc := newEmailsService(sender, emailConfig(config.EnvDev))
	err := svc.SendCode(context.Background(), CodeEmailInput{
		Kind:  EmailKindPasswordReset,
		Email: "ronaldo@mail.com",
		Code:  "XY98ZW",
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestEmailService_DeliveryErrors(t *testing.T) {
	withTemplatesDir(t, nil)

	sender := new(mock_email.EmailSender)
	sender.On("Send", mock.Anything).Return(errors.New("connection refused"))

	svc := newEmailsService(sender, emailConfig(config.EnvLocal))
	err := svc.SendCode(context.Background(), CodeEmailInput{Kind: EmailKindChange, Email: "a@mail.com", Code: "AAAAAA"})
	assert.ErrorIs(t, err, ErrEmailDelivery)

	noTransport := newEmailsService(nil, emailConfig(config.EnvLocal))
	err = noTransport.SendCode(context.Background(), CodeEmailInput{Email: "a@mail.com", Code: "AAAAAA"})
	assert.ErrorIs(t, err, ErrEmailTransport)
}

func TestEmailService_DisabledInTestEnv(t *testing.T) {
	sender := new(mock_email.EmailSender)

	svc := newEmailsService(sender, emailConfig(config.EnvTest))
	require.NoError(t, svc.SendCode(context.Background(), CodeEmailInput{Email: "a@mail.com", Code: "AAAAAA"}))

	cfg := emailConfig(config.EnvLocal)
	cfg.Email.Enabled = false
	svc = newEmailsService(sender, cfg)
	require.NoError(t, svc.SendCode(context.Background(), CodeEmailInput{Email: "a@mail.com", Code: "AAAAAA"}))

	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestEmailService_AsyncWithoutQueue(t *testing.T) {
	cfg := emailConfig(config.EnvLocal)
	cfg.Email.Async = true

	svc := newEmailsService(new(mock_email.EmailSender), cfg)
	err := svc.SendCode(context.Background(), CodeEmailInput{Email: "a@mail.com", Code: "AAAAAA"})
	assert.ErrorIs(t, err, ErrEmailTransport)
}
