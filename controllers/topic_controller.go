package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/onboarding-backend/services"
)

const maxUploadSize = 32 << 20

type TopicController struct {
	topics *services.TopicService
	logger *slog.Logger
}

func NewTopicController(topics *services.TopicService, logger *slog.Logger) *TopicController {
	return &TopicController{topics: topics, logger: logger}
}

// GetTopics cho trang quản trị (có search, filter, pagination)
func (tc *TopicController) GetTopics(c *gin.Context) {
	filter := services.TopicFilter{Search: c.Query("search")}
	switch c.Query("active") {
	case "true":
		v := true
		filter.Active = &v
	case "false":
		v := false
		filter.Active = &v
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	page, err := tc.topics.SearchTopics(c.Request.Context(), filter)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Data,
		"page":    page.Page,
		"limit":   page.Limit,
		"total":   page.Total,
	})
}

func (tc *TopicController) GetTopic(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	topic, err := tc.topics.GetTopic(c.Request.Context(), id)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": topic})
}

func (tc *TopicController) CreateTopic(c *gin.Context) {
	var input services.TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	topic, err := tc.topics.CreateTopic(c.Request.Context(), input)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "topic created", "data": topic})
}

func (tc *TopicController) UpdateTopic(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input services.TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	topic, err := tc.topics.UpdateTopic(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "topic updated", "data": topic})
}

func (tc *TopicController) ToggleTopicStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	topic, err := tc.topics.ToggleTopicStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "active": topic.Active, "data": topic})
}

// AddDocument nhận multipart: "file" và "title" (tuỳ chọn).
func (tc *TopicController) AddDocument(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "cannot read file")
		return
	}
	defer file.Close()

	doc, err := tc.topics.AddTopicDocument(c.Request.Context(), id, c.PostForm("title"), fileHeader.Filename, file)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": doc})
}

func (tc *TopicController) AddLink(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input services.LinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	link, err := tc.topics.AddTopicLink(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": link})
}

func (tc *TopicController) AddContact(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input services.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err)
		return
	}
	contact, err := tc.topics.AddTopicContact(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": contact})
}
