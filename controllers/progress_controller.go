package controllers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/onboarding-backend/middleware"
	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
)

type ProgressController struct {
	progress *services.ProgressService
	topics   *services.TopicService
	accounts *services.AccountService
	export   *services.ExportService
	logger   *slog.Logger
}

func NewProgressController(progress *services.ProgressService, topics *services.TopicService,
	accounts *services.AccountService, export *services.ExportService, logger *slog.Logger) *ProgressController {
	return &ProgressController{progress: progress, topics: topics, accounts: accounts, export: export, logger: logger}
}

// resolveMember đọc :id (uuid hoặc email). Người không có quyền team:view chỉ được xem chính mình.
func resolveMember(c *gin.Context, accounts *services.AccountService, logger *slog.Logger) (*models.Account, bool) {
	param := strings.TrimSpace(c.Param("id"))
	ident := middleware.CurrentIdentity(c)
	if !ident.Can(models.PermViewTeam) && !isSelf(param, ident) {
		fail(c, http.StatusForbidden, "permission denied")
		return nil, false
	}

	acc, err := accounts.ResolveAccount(c.Request.Context(), param)
	if err != nil {
		respondError(c, logger, err)
		return nil, false
	}
	if acc.ID != ident.AccountID && !ident.Can(models.PermViewTeam) {
		fail(c, http.StatusForbidden, "permission denied")
		return nil, false
	}
	return acc, true
}

// isSelf so khớp :id với chính người gọi, uuid không phân biệt hoa thường.
func isSelf(param string, ident *services.Identity) bool {
	if id, err := uuid.Parse(param); err == nil {
		return id == ident.AccountID
	}
	return strings.EqualFold(param, ident.Email)
}

func (pc *ProgressController) ListTopics(c *gin.Context) {
	topics, err := pc.topics.ListTopics(c.Request.Context())
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": topics})
}

func (pc *ProgressController) ListMembers(c *gin.Context) {
	members, err := pc.progress.ListTeamMembers(c.Request.Context())
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}

func (pc *ProgressController) ExportMembers(c *gin.Context) {
	var buf bytes.Buffer
	if err := pc.export.ExportTeamProgress(c.Request.Context(), &buf); err != nil {
		respondError(c, pc.logger, err)
		return
	}
	filename := "team-progress-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (pc *ProgressController) MemberSummary(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	summary, err := pc.progress.AggregateMemberSummary(c.Request.Context(), acc.ID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

func (pc *ProgressController) MemberTopics(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	progress, err := pc.progress.GetUserProgress(c.Request.Context(), acc.ID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": progress})
}

func (pc *ProgressController) CompleteTopic(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	topicID, ok := parseUintParam(c, "topicId")
	if !ok {
		return
	}
	rec, err := pc.progress.MarkTopicCompleted(c.Request.Context(), acc.ID, topicID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "topic completed", "data": rec})
}

func (pc *ProgressController) StartTopic(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	topicID, ok := parseUintParam(c, "topicId")
	if !ok {
		return
	}
	rec, err := pc.progress.StartTopic(c.Request.Context(), acc.ID, topicID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "topic started", "data": rec})
}

type UpdateProgressInput struct {
	TimeSpent *string `json:"timeSpent" binding:"omitempty,max=50"`
	Notes     *string `json:"notes" binding:"omitempty,max=4000"`
}

func (pc *ProgressController) UpdateTopic(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	topicID, ok := parseUintParam(c, "topicId")
	if !ok {
		return
	}
	var input UpdateProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	rec, err := pc.progress.UpdateTopicProgress(c.Request.Context(), acc.ID, topicID, input.TimeSpent, input.Notes)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (pc *ProgressController) ListActivity(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	entries, err := pc.progress.ListActivity(c.Request.Context(), acc.ID, 0)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

type ActivityInput struct {
	Action     string `json:"action" binding:"required,max=200"`
	TopicTitle string `json:"topicTitle" binding:"max=200"`
	Type       string `json:"type" binding:"required,oneof=completed started updated"`
}

func (pc *ProgressController) AddActivity(c *gin.Context) {
	acc, ok := resolveMember(c, pc.accounts, pc.logger)
	if !ok {
		return
	}
	var input ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	entry, err := pc.progress.AddActivity(c.Request.Context(), acc.ID, input.Action, input.TopicTitle,
		models.ActivityType(input.Type))
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "logged": false, "message": "activity log is disabled"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "logged": true, "data": entry})
}
