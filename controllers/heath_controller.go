package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/onboarding-backend/ws"
)

type HealthController struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewHealthController(db *gorm.DB, hub *ws.Hub) *HealthController {
	return &HealthController{db: db, hub: hub}
}

func (hc *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	// Mặc định trạng thái OK
	response := gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
		"websocket": gin.H{"enabled": false},
	}
	if hc.hub != nil {
		response["websocket"] = gin.H{"enabled": true, "stats": hc.hub.Stats()}
	}

	// Thử ping database
	sqlDB, err := hc.db.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
