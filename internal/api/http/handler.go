package apiHttp

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/waw-schedule/backend/docs"
	"github.com/waw-schedule/backend/pkg/limiter"
	"github.com/waw-schedule/backend/pkg/logger"
	"github.com/waw-schedule/backend/pkg/validator"

	internalV1 "github.com/waw-schedule/backend/internal/api/http/internal/v1"
	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/service"

	"github.com/gin-gonic/gin"
)

const limiterIdleTTL = 10 * time.Minute

type Handler struct {
	services *service.Services
	enforcer *authz.Enforcer
	config   *config.Config
}

func NewHandlers(
	services *service.Services,
	enforcer *authz.Enforcer,
	cfg *config.Config,
) *Handler {
	return &Handler{
		services: services,
		enforcer: enforcer,
		config:   cfg,
	}
}

type healthResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Init(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		requestIDMiddleware,
		ginzap.GinzapWithConfig(logger.Logger(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/healthcheck"},
			Context: func(c *gin.Context) []zapcore.Field {
				return []zapcore.Field{zap.String("request_id", c.GetString(internalV1.RequestIDKey))}
			},
		}),
		ginzap.RecoveryWithZap(logger.Logger(), true),
		corsMiddleware(cfg.HttpServer.AllowedOrigins),
		limiter.Limit(cfg.Limiter.GlobalPerMinute(), limiterIdleTTL),
	)

	if cfg.HttpServer.SwaggerEnabled {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.NewHandler(), ginSwagger.InstanceName("internal")))
	}

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{Message: "App is up and running!"})
	})

	h.initAPI(router)

	return router
}

func (h *Handler) initAPI(router *gin.Engine) {
	internalHandlersV1 := internalV1.NewHandler(h.services, h.enforcer, h.config)
	internalHandlersV1.Init(router)
}
