package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/services"
	"github.com/vnkhanh/onboarding-backend/utils"
)

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// respondError đổi lỗi nghiệp vụ ra status code. Lỗi không nhận ra được log và trả 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTooManyAttempts):
		fail(c, http.StatusTooManyRequests, services.ErrTooManyAttempts.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrInvalidResetToken),
		errors.Is(err, utils.ErrInvalidFileName):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, utils.ErrFileNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInactiveAccount):
		fail(c, http.StatusForbidden, err.Error())
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindFailed(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
