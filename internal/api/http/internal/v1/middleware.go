package v1

import (
	"errors"
	"net/http"

	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AccessTokenCookie = "access_token"
	RequestIDKey      = "request_id"
	claimsCtx         = "claims"
)

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func (h *Handler) userIdentityMiddleware(c *gin.Context) {
	// read the raw value; gin's c.Cookie would query-unescape the signature
	cookie, err := c.Request.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		errorResponse(c, AuthRequiredCode, nil)
		return
	}

	token, err := h.cookieSigner.Unsign(cookie.Value)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}

	claims, err := h.services.Sessions.Validate(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			errorResponse(c, TokenExpiredCode, nil)
		case errors.Is(err, service.ErrAuthRequired):
			errorResponse(c, AuthRequiredCode, nil)
		default:
			errorResponse(c, SessionCheckFailureCode, err)
		}
		return
	}

	c.Set(claimsCtx, claims)
	c.Next()
}

// authorize checks the caller's roles against the matched route template.
func (h *Handler) authorize(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		errorResponse(c, AuthRequiredCode, nil)
		return
	}

	allowed, err := h.enforcer.Allowed(claims.Role, c.FullPath(), c.Request.Method)
	if err != nil {
		errorResponse(c, SessionCheckFailureCode, err)
		return
	}
	if !allowed {
		logger.Warn("route forbidden",
			zap.String("request_id", requestID(c)),
			zap.String("userid", claims.UserID),
			zap.String("path", c.FullPath()),
		)
		errorResponse(c, ForbiddenCode, nil)
		return
	}

	c.Next()
}

// canManageUser lets callers act on their own resources, or on anyone's when
// a role grants the object.
func (h *Handler) canManageUser(c *gin.Context, target uuid.UUID, object string) bool {
	claims, ok := getClaims(c)
	if !ok {
		return false
	}
	if claims.UserID == target.String() {
		return true
	}

	allowed, err := h.enforcer.Allowed(claims.Role, object, c.Request.Method)
	if err != nil {
		logger.Error("authz check failed", zap.String("request_id", requestID(c)), zap.Error(err))
		return false
	}
	return allowed
}

func getClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsCtx)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func (h *Handler) getUserUUID(c *gin.Context) (uuid.UUID, error) {
	claims, ok := getClaims(c)
	if !ok {
		return uuid.Nil, errors.New("user id not found")
	}

	return uuid.Parse(claims.UserID)
}

func (h *Handler) setAccessTokenCookie(c *gin.Context, token string, maxAge int) {
	secure := !h.config.IsLocal()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    h.cookieSigner.Sign(token),
		Path:     "/",
		Domain:   h.config.Cookie.Domain,
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAccessTokenCookie(c *gin.Context) {
	secure := !h.config.IsLocal()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.config.Cookie.Domain,
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: secure,
		SameSite: http.SameSiteStrictMode,
	})
}
