package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	SendEmailTaskName  = "sendEmailTask"
	SendEmailQueueName = "sendEmailQueue"
)

// SendEmail carries a one-time code email to the worker.
type SendEmail struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Code  string `json:"code"`
}

func NewSendEmailTask(data SendEmail) (*asynq.Task, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SendEmailTaskName,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(SendEmailQueueName),
	), nil
}
