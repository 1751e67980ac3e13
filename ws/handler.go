package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
)

// Authenticator xác thực access token truyền qua query ?token=.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

func newUpgrader(allowOrigin func(origin string) bool) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
	}
}

// DashboardHandler nâng cấp kết nối cho người có quyền team:view.
func DashboardHandler(h *Hub, auth Authenticator, allowOrigin func(origin string) bool) gin.HandlerFunc {
	upgrader := newUpgrader(allowOrigin)
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
			return
		}
		ident, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}
		if !ident.Can(models.PermViewTeam) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "permission denied"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", "error", err)
			return
		}
		h.Register(conn)
		h.logger.Info("dashboard ws connected", "account_id", ident.AccountID)

		data, _ := json.Marshal(gin.H{"type": "connected", "message": "Connected to dashboard feed"})
		h.SendTo(conn, data)
	}
}
