package service

import (
	"context"
	"fmt"

	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/queue/client"
	"github.com/waw-schedule/backend/internal/queue/task"
	emailProvider "github.com/waw-schedule/backend/pkg/email"
	"github.com/waw-schedule/backend/pkg/logger"

	"go.uber.org/zap"
)

type EmailKind string

const (
	EmailKindVerification  EmailKind = "verification"
	EmailKindChange        EmailKind = "email_change"
	EmailKindPasswordReset EmailKind = "password_reset"
)

type CodeEmailInput struct {
	Kind  EmailKind
	Email string
	Name  string
	Code  string
}

type EmailService struct {
	sender       emailProvider.Sender
	config       config.EmailConfig
	enabled      bool
	async        bool
	validMinutes int
}

func newEmailsService(sender emailProvider.Sender, cfg *config.Config) *EmailService {
	return &EmailService{
		sender:       sender,
		config:       cfg.Email,
		enabled:      cfg.Email.Enabled && !cfg.IsTest(),
		async:        cfg.Email.Async,
		validMinutes: int(cfg.Auth.CodeTTL().Minutes()),
	}
}

type codeEmailTemplateInput struct {
	Name         string
	Code         string
	ValidMinutes int
}

// SendCode mails a one-time code, or queues it when async delivery is on.
// It is a no-op in the test environment or when email is disabled.
func (s *EmailService) SendCode(ctx context.Context, input CodeEmailInput) error {
	if !s.enabled {
		return nil
	}

	if s.async {
		return s.enqueue(ctx, input)
	}

	return s.Deliver(input)
}

// Deliver renders and sends synchronously. Workers call it for queued emails.
func (s *EmailService) Deliver(input CodeEmailInput) error {
	if s.sender == nil {
		return ErrEmailTransport
	}

	sendInput := s.build(input)
	if err := s.sender.Send(sendInput); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return nil
}

func (s *EmailService) enqueue(ctx context.Context, input CodeEmailInput) error {
	queue := client.GetClient(ctx)
	if queue == nil {
		return ErrEmailTransport
	}

	t, err := task.NewSendEmailTask(task.SendEmail{
		Kind:  string(input.Kind),
		Email: input.Email,
		Name:  input.Name,
		Code:  input.Code,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	if _, err := queue.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("%w: enqueue: %w", ErrEmailDelivery, err)
	}

	return nil
}

func (s *EmailService) build(input CodeEmailInput) emailProvider.SendEmailInput {
	var subject, templateName, fallback string
	switch input.Kind {
	case EmailKindChange:
		subject = "Code to confirm your new WAW email: " + input.Code
		templateName = s.config.Templates.EmailChange
		fallback = "Use the following code to confirm your new email address: " + input.Code
	case EmailKindPasswordReset:
		subject = "Code to reset your WAW password: " + input.Code
		templateName = s.config.Templates.PasswordReset
		fallback = "Use the following code to reset your WAW password: " + input.Code
	default:
		subject = "Code to verify your WAW email: " + input.Code
		templateName = s.config.Templates.Verification
		fallback = "Thanks for registering with WAW schedule management service! " +
			"Use the following code to complete the email verification process: " + input.Code
	}

	sendInput := emailProvider.SendEmailInput{Subject: subject, To: input.Email}

	templateInput := codeEmailTemplateInput{Name: input.Name, Code: input.Code, ValidMinutes: s.validMinutes}
	if err := sendInput.GenerateBodyFromHTML(templateName, templateInput); err != nil {
		logger.Warn("email template render failed, using plain text",
			zap.String("template", templateName),
			zap.Error(err),
		)
		sendInput.Body = fallback
		sendInput.PlainText = true
	}

	return sendInput
}
