package worker

import (
	"context"

	"github.com/waw-schedule/backend/internal/service"
)

type Workers struct {
	EmailSender EmailSender
}

type Deps struct {
	Services *service.Services
}

type EmailSender interface {
	SendCodeEmail(ctx context.Context, input service.CodeEmailInput) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		EmailSender: newEmailSender(deps.Services.Emails),
	}
}
