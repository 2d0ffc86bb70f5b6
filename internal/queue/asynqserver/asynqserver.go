package asynqserver

import (
	"context"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/queue/processor"
	"github.com/waw-schedule/backend/internal/queue/task"
	"github.com/waw-schedule/backend/internal/worker"
	"github.com/waw-schedule/backend/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func New(cfg config.Cache, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency:  10,
			LogLevel:     asynq.ErrorLevel,
			Queues:       queues,
			ErrorHandler: asynq.ErrorHandlerFunc(logTaskError),
		},
	)

	return srv, mux
}

func logTaskError(_ context.Context, t *asynq.Task, err error) {
	logger.Error("queue task failed", zap.String("task", t.Type()), zap.Error(err))
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, PoolSize: cfg.Redis.PoolSize}
	}
	return opts
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.SendEmailTaskName, processor.NewSendEmailProcessor(workers))
	queues := map[string]int{
		task.SendEmailQueueName: 1,
	}
	return mux, queues
}
