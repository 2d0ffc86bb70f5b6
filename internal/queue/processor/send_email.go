package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/waw-schedule/backend/internal/queue/task"
	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/internal/worker"

	"github.com/hibiken/asynq"
)

type sendEmailProcessor struct {
	workers *worker.Workers
}

func NewSendEmailProcessor(workers *worker.Workers) *sendEmailProcessor {
	return &sendEmailProcessor{
		workers: workers,
	}
}

func (p *sendEmailProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendEmail
	err := json.Unmarshal(t.Payload(), &data)
	if err != nil {
		return fmt.Errorf("process send email task json unmarshal failed: %w: %w", err, asynq.SkipRetry)
	}

	if err = p.workers.EmailSender.SendCodeEmail(ctx, service.CodeEmailInput{
		Kind:  service.EmailKind(data.Kind),
		Email: data.Email,
		Name:  data.Name,
		Code:  data.Code,
	}); err != nil {
		return fmt.Errorf("send %s email failed: %w", data.Kind, err)
	}

	return nil
}
