package worker

import (
	"context"
	"fmt"

	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/logger"

	"go.uber.org/zap"
)

type emailSender struct {
	emails service.Emails
}

func newEmailSender(emails service.Emails) *emailSender {
	return &emailSender{
		emails: emails,
	}
}

func (s *emailSender) SendCodeEmail(ctx context.Context, input service.CodeEmailInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.emails.Deliver(input); err != nil {
		return fmt.Errorf("deliver %s email failed: %w", input.Kind, err)
	}

	logger.Info("code email delivered", zap.String("kind", string(input.Kind)), zap.String("to", input.Email))

	return nil
}
