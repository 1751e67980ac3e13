package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
)

const (
	identityKey = "identity"
	tokenKey    = "access_token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

type TokenVerifier interface {
	VerifyAccessToken(token string) error
}

// BearerToken lấy token từ "Authorization: Bearer <token>", hoặc X-Auth-Token (cho iOS).
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return strings.TrimSpace(c.GetHeader("X-Auth-Token"))
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// AuthMiddleware yêu cầu access token hợp lệ gắn với session còn sống.
func AuthMiddleware(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}

		ident, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrInactiveAccount):
			abort(c, http.StatusForbidden, services.ErrInactiveAccount.Error())
			return
		case errors.Is(err, services.ErrInvalidToken):
			abort(c, http.StatusUnauthorized, services.ErrInvalidToken.Error())
			return
		default:
			logger.ErrorContext(c.Request.Context(), "authenticate failed", "error", err)
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}

		// Lưu thông tin vào context để controller dùng
		c.Set(identityKey, ident)
		c.Set(tokenKey, token)
		c.Set("user_id", ident.AccountID.String())
		c.Next()
	}
}

// SignedTokenMiddleware chỉ yêu cầu JWT hợp lệ, không cần session còn sống (dùng cho logout).
func SignedTokenMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		if err := v.VerifyAccessToken(token); err != nil {
			abort(c, http.StatusUnauthorized, services.ErrInvalidToken.Error())
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequirePermission chặn người gọi không có quyền p. Phải đứng sau AuthMiddleware.
func RequirePermission(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := CurrentIdentity(c)
		if ident == nil {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !ident.Can(p) {
			abort(c, http.StatusForbidden, "permission denied")
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) *services.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*services.Identity)
	return ident
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
