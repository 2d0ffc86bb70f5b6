package client

import (
	"context"
	"sync/atomic"

	"github.com/hibiken/asynq"
)

type ctxKey struct{}

var current atomic.Pointer[asynq.Client]

// WithClient makes ctx carry its own queue client, ahead of the process one.
func WithClient(ctx context.Context, c *asynq.Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// GetClient returns the queue client carried by ctx, else the one installed
// with SetClient, else nil when async email delivery is off.
func GetClient(ctx context.Context) *asynq.Client {
	if c, ok := ctx.Value(ctxKey{}).(*asynq.Client); ok && c != nil {
		return c
	}
	return current.Load()
}

// SetClient installs the process queue client and returns a func that puts
// the previous one back.
func SetClient(c *asynq.Client) func() {
	prev := current.Swap(c)
	return func() { current.Store(prev) }
}
