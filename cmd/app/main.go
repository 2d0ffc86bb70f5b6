package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiHttp "github.com/waw-schedule/backend/internal/api/http"
	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/db"
	"github.com/waw-schedule/backend/internal/queue/asynqserver"
	"github.com/waw-schedule/backend/internal/queue/client"
	"github.com/waw-schedule/backend/internal/repository"
	"github.com/waw-schedule/backend/internal/server"
	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/internal/worker"
	"github.com/waw-schedule/backend/pkg/auth"
	emailProvider "github.com/waw-schedule/backend/pkg/email"
	"github.com/waw-schedule/backend/pkg/email/smtp"
	"github.com/waw-schedule/backend/pkg/hash"
	"github.com/waw-schedule/backend/pkg/logger"
	"github.com/waw-schedule/backend/pkg/otp"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	logger.Init(cfg.Env, logger.Options{
		Level:       cfg.Log.Level,
		FileEnabled: cfg.Log.FileEnabled,
		Dir:         cfg.Log.Dir,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	defer logger.Sync()

	logger.Info("starting backend api", zap.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		logger.Fatal("mysql connect problem", zap.Error(err))
	}
	defer func() {
		if err := dbMySQL.Close(); err != nil {
			logger.Error("error when closing", zap.Error(err))
		}
	}()
	logger.Info("mysql connection done")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background(), dbMySQL.DB); err != nil {
			logger.Fatal("mysql migrate problem", zap.Error(err))
		}
		logger.Info("mysql migrations applied")
	}

	var authState cache.AuthStateStore = cache.NopAuthStateStore{}
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Cache)
		if err != nil {
			logger.Fatal("redis connect problem", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		authState = cache.NewRedisAuthStateStore(redisClient)
		logger.Info("redis connection done")
	}

	hasher := hash.NewBcryptHasher(cfg.Auth.PasswordCost)

	var emailSender emailProvider.Sender
	smtpSender, err := smtp.NewSMTPSender(cfg.SMTP.From, cfg.AppName, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
	if err != nil {
		// the service still starts; code emails fail with a transport error
		logger.Error("smtp sender creation failed", zap.Error(err))
	} else {
		emailSender = smtpSender
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		logger.Fatal("auth manager creation err", zap.Error(err))
	}

	otpGenerator := otp.New(cfg.Auth.CodeGenerator)

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Config:       cfg,
		Hasher:       hasher,
		TokenManager: tokenManager,
		OtpGenerator: otpGenerator,
		EmailSender:  emailSender,
		AuthState:    authState,
		Repos:        repos,
	})

	// Queue for async email delivery
	var queueServer *asynq.Server
	if cfg.Email.Async {
		queueClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
		defer func() {
			_ = queueClient.Close()
		}()
		restore := client.SetClient(queueClient)
		defer restore()

		workers := worker.NewWorkers(worker.Deps{Services: services})
		var mux *asynq.ServeMux
		queueServer, mux = asynqserver.New(cfg.Cache, workers)
		go func() {
			if err := queueServer.Run(mux); err != nil {
				logger.Error("error occurred while running queue server", zap.Error(err))
			}
		}()
		logger.Info("queue server started")
	}

	enforcer, err := authz.New()
	if err != nil {
		logger.Fatal("authz enforcer creation err", zap.Error(err))
	}

	handlers := apiHttp.NewHandlers(services, enforcer, cfg)

	// HTTP Server
	srv := server.NewServer(cfg.HttpServer, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}

	if queueServer != nil {
		queueServer.Shutdown()
	}

	logger.Info("app stopped")
}
