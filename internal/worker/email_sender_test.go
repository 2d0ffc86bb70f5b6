package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/waw-schedule/backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmails struct {
	delivered []service.CodeEmailInput
	err       error
}

func (r *recordingEmails) SendCode(_ context.Context, input service.CodeEmailInput) error {
	return r.Deliver(input)
}

func (r *recordingEmails) Deliver(input service.CodeEmailInput) error {
	r.delivered = append(r.delivered, input)
	return r.err
}

func TestEmailSender_SendCodeEmail(t *testing.T) {
	emails := &recordingEmails{}
	workers := NewWorkers(Deps{Services: &service.Services{Emails: emails}})

	input := service.CodeEmailInput{Kind: service.EmailKindVerification, Email: "ronaldo@mail.com", Code: "AB12CD"}
	require.NoError(t, workers.EmailSender.SendCodeEmail(context.Background(), input))
	assert.Equal(t, []service.CodeEmailInput{input}, emails.delivered)
}

func TestEmailSender_Errors(t *testing.T) {
	emails := &recordingEmails{err: service.ErrEmailDelivery}
	sender := newEmailSender(emails)

	err := sender.SendCodeEmail(context.Background(), service.CodeEmailInput{Kind: service.EmailKindChange})
	assert.ErrorIs(t, err, service.ErrEmailDelivery)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sender.SendCodeEmail(ctx, service.CodeEmailInput{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, emails.delivered, 1)
}
