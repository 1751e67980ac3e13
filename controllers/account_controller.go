package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/services"
)

type AccountController struct {
	accounts *services.AccountService
	logger   *slog.Logger
}

func NewAccountController(accounts *services.AccountService, logger *slog.Logger) *AccountController {
	return &AccountController{accounts: accounts, logger: logger}
}

func (ac *AccountController) TeamMembers(c *gin.Context) {
	accounts, err := ac.accounts.ListDirectory(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": accounts})
}

// GetUser: chính mình hoặc người có quyền team:view.
func (ac *AccountController) GetUser(c *gin.Context) {
	acc, ok := resolveMember(c, ac.accounts, ac.logger)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": acc})
}

func (ac *AccountController) GetUserByEmail(c *gin.Context) {
	acc, err := ac.accounts.ResolveAccount(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": acc})
}

func (ac *AccountController) Subordinates(c *gin.Context) {
	manager, err := ac.accounts.ResolveAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	accounts, err := ac.accounts.Subordinates(c.Request.Context(), manager.ID)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": accounts})
}

// ==== ADMIN TẠO TÀI KHOẢN ====
func (ac *AccountController) CreateUser(c *gin.Context) {
	var input services.CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	acc, err := ac.accounts.CreateAccount(c.Request.Context(), input)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "account created", "data": acc})
}
