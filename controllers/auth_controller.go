package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/middleware"
	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
)

// ====== INPUT STRUCTS ======
type LoginInput struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type GoogleLoginInput struct {
	IDToken string `json:"idToken" binding:"required"`
}

type AuthController struct {
	auth   *services.AuthService
	logger *slog.Logger
}

func NewAuthController(auth *services.AuthService, logger *slog.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

func (ac *AuthController) writeLogin(c *gin.Context, res *services.LoginResult, err error) {
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ====== HANDLERS ======
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := ac.auth.Login(c.Request.Context(), input.Email, input.Password, input.RememberMe,
		c.ClientIP(), c.Request.UserAgent())
	ac.writeLogin(c, res, err)
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if !ac.auth.GoogleEnabled() {
		fail(c, http.StatusNotFound, services.ErrGoogleDisabled.Error())
		return
	}
	var input GoogleLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := ac.auth.LoginWithGoogle(c.Request.Context(), input.IDToken, c.ClientIP(), c.Request.UserAgent())
	ac.writeLogin(c, res, err)
}

func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := ac.auth.Refresh(c.Request.Context(), input.RefreshToken)
	ac.writeLogin(c, res, err)
}

func (ac *AuthController) Logout(c *gin.Context) {
	ac.auth.Logout(c.Request.Context(), middleware.CurrentToken(c))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// ForgotPassword luôn trả về success để không lộ email nào có tài khoản.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err == nil && input.Email != "" {
		ac.auth.RequestPasswordReset(c.Request.Context(), input.Email)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "if the email is registered, a reset link has been sent",
	})
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	if err := ac.auth.ResetPassword(c.Request.Context(), input.Token, input.NewPassword); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password updated"})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	ident := middleware.CurrentIdentity(c)
	err := ac.auth.ChangePassword(c.Request.Context(), ident.AccountID, input.CurrentPassword, input.NewPassword,
		middleware.CurrentToken(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password changed"})
}

func (ac *AuthController) Me(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	perms := models.Permissions[ident.Role]
	if perms == nil {
		perms = []models.Permission{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":          ident.AccountID,
			"email":       ident.Email,
			"name":        ident.Name,
			"role":        ident.Role,
			"profile":     ident.Profile,
			"firstLogin":  ident.FirstLogin,
			"permissions": perms,
		},
	})
}

func (ac *AuthController) VerifyToken(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"valid":     true,
		"userId":    ident.AccountID,
		"expiresAt": ident.ExpiresAt,
	})
}
