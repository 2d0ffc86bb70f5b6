package v1

import (
	"time"

	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// @title WAW Account API
// @version 1.0
// @description Account, session and availability endpoints of the WAW scheduling backend.

// @BasePath /

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name access_token

const limiterIdleTTL = 10 * time.Minute

type Handler struct {
	services     *service.Services
	enforcer     *authz.Enforcer
	cookieSigner *auth.CookieSigner
	config       *config.Config
}

func NewHandler(
	services *service.Services,
	enforcer *authz.Enforcer,
	config *config.Config,
) *Handler {
	return &Handler{
		services:     services,
		enforcer:     enforcer,
		cookieSigner: auth.NewCookieSigner(config.Cookie.Secret),
		config:       config,
	}
}

func (h *Handler) Init(router gin.IRouter) {
	authLimit := limiter.Limit(h.config.Limiter.AuthPerMinute(), limiterIdleTTL)

	public := router.Group("", authLimit)
	protected := router.Group("", h.userIdentityMiddleware, h.authorize)

	h.initUsersRoutes(public, protected)
	h.initAvailabilityRoutes(protected)
}
