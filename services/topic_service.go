package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

type TopicInput struct {
	Title         string `json:"title" binding:"required,max=200"`
	Description   string `json:"description" binding:"max=1000"`
	Category      string `json:"category" binding:"max=100"`
	EstimatedTime string `json:"estimatedTime" binding:"max=20"`
	Active        *bool  `json:"active"`
}

type TopicFilter struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

type TopicPage struct {
	Data  []models.Topic `json:"data"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
}

type TopicService struct {
	db     *gorm.DB
	files  utils.FileStore
	logger *slog.Logger
}

func NewTopicService(db *gorm.DB, files utils.FileStore, logger *slog.Logger) *TopicService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicService{db: db, files: files, logger: logger}
}

func withResources(db *gorm.DB) *gorm.DB {
	return db.Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Links", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Contacts", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// ListTopics trả về các topic đang hoạt động theo id tăng dần, kèm tài liệu, link và liên hệ.
func (s *TopicService) ListTopics(ctx context.Context) ([]models.Topic, error) {
	topics := make([]models.Topic, 0)
	err := withResources(s.db.WithContext(ctx)).
		Where("active = ?", true).
		Order("id ASC").
		Find(&topics).Error
	return topics, err
}

// SearchTopics dùng cho trang quản trị: tìm theo tiêu đề, lọc trạng thái, phân trang.
func (s *TopicService) SearchTopics(ctx context.Context, f TopicFilter) (*TopicPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}

	query := s.db.WithContext(ctx).Model(&models.Topic{})
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	topics := make([]models.Topic, 0)
	err := query.Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Order("id ASC").Find(&topics).Error
	if err != nil {
		return nil, err
	}
	return &TopicPage{Data: topics, Page: f.Page, Limit: f.Limit, Total: total}, nil
}

func (s *TopicService) GetTopic(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	err := withResources(s.db.WithContext(ctx)).First(&topic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// ensureUniqueTitle từ chối tiêu đề trùng (theo slug) với topic khác.
func (s *TopicService) ensureUniqueTitle(ctx context.Context, title string, exceptID uint) (string, error) {
	slugValue := slug.Make(title)
	if slugValue == "" {
		return "", fmt.Errorf("%w: title", ErrInvalidInput)
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("slug = ? AND id <> ?", slugValue, exceptID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrTopicExists
	}
	return slugValue, nil
}

func validEstimate(s string) bool {
	return strings.TrimSpace(s) == "" || ParseTimeToMinutes(s) > 0
}

func (s *TopicService) CreateTopic(ctx context.Context, in TopicInput) (*models.Topic, error) {
	title := strings.TrimSpace(in.Title)
	if !validEstimate(in.EstimatedTime) {
		return nil, fmt.Errorf("%w: estimatedTime must look like \"2h\", \"1.5h\" or \"90min\"", ErrInvalidInput)
	}
	slugValue, err := s.ensureUniqueTitle(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	topic := models.Topic{
		Title:         title,
		Slug:          slugValue,
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		EstimatedTime: strings.TrimSpace(in.EstimatedTime),
		Active:        true,
	}
	if in.Active != nil {
		topic.Active = *in.Active
	}
	if err := s.db.WithContext(ctx).Create(&topic).Error; err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "topic created", "topic_id", topic.ID, "slug", topic.Slug)
	return &topic, nil
}

func (s *TopicService) UpdateTopic(ctx context.Context, id uint, in TopicInput) (*models.Topic, error) {
	var topic models.Topic
	if err := s.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	if !validEstimate(in.EstimatedTime) {
		return nil, fmt.Errorf("%w: estimatedTime must look like \"2h\", \"1.5h\" or \"90min\"", ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	slugValue, err := s.ensureUniqueTitle(ctx, title, topic.ID)
	if err != nil {
		return nil, err
	}

	topic.Title = title
	topic.Slug = slugValue
	topic.Description = strings.TrimSpace(in.Description)
	topic.Category = strings.TrimSpace(in.Category)
	topic.EstimatedTime = strings.TrimSpace(in.EstimatedTime)
	if in.Active != nil {
		topic.Active = *in.Active
	}
	if err := s.db.WithContext(ctx).Save(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// ToggleTopicStatus bật/tắt topic. Tiến độ đã ghi của topic bị tắt vẫn được giữ.
func (s *TopicService) ToggleTopicStatus(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := s.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	topic.Active = !topic.Active
	if err := s.db.WithContext(ctx).Model(&topic).Update("active", topic.Active).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *TopicService) topicExists(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Topic{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTopicNotFound
	}
	return nil
}

// AddTopicDocument lưu file qua FileStore và gắn vào topic. PDF được đếm số trang.
func (s *TopicService) AddTopicDocument(ctx context.Context, topicID uint, title, filename string, r io.Reader) (*models.TopicDocument, error) {
	if err := s.topicExists(ctx, topicID); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	doc := models.TopicDocument{
		TopicID: topicID,
		Title:   strings.TrimSpace(title),
		Type:    "doc",
		Size:    utils.HumanSize(int64(len(data))),
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		doc.Type = "pdf"
		pages, err := utils.CountPDFPages(data)
		if err != nil {
			s.logger.WarnContext(ctx, "pdf page count failed", "file", filename, "error", err)
		}
		doc.Pages = pages
	}

	stored, err := s.files.Save(ctx, filename, bytes.NewReader(data), utils.ContentTypeFor(filename))
	if err != nil {
		if errors.Is(err, utils.ErrInvalidFileName) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("save file: %w", err)
	}
	doc.URL = utils.DownloadURL(stored)

	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		if delErr := s.files.Delete(ctx, stored); delErr != nil {
			s.logger.WarnContext(ctx, "orphan file not removed", "file", stored, "error", delErr)
		}
		return nil, err
	}
	return &doc, nil
}

type LinkInput struct {
	Title string `json:"title" binding:"required,max=200"`
	URL   string `json:"url" binding:"required,url,max=500"`
}

func (s *TopicService) AddTopicLink(ctx context.Context, topicID uint, in LinkInput) (*models.TopicLink, error) {
	if err := s.topicExists(ctx, topicID); err != nil {
		return nil, err
	}
	link := models.TopicLink{TopicID: topicID, Title: strings.TrimSpace(in.Title), URL: strings.TrimSpace(in.URL)}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

type ContactInput struct {
	Name       string `json:"name" binding:"required,max=100"`
	Role       string `json:"role" binding:"max=100"`
	Email      string `json:"email" binding:"required,email,max=100"`
	Phone      string `json:"phone" binding:"max=50"`
	Department string `json:"department" binding:"max=100"`
}

func (s *TopicService) AddTopicContact(ctx context.Context, topicID uint, in ContactInput) (*models.TopicContact, error) {
	if err := s.topicExists(ctx, topicID); err != nil {
		return nil, err
	}
	contact := models.TopicContact{
		TopicID:    topicID,
		Name:       strings.TrimSpace(in.Name),
		Role:       strings.TrimSpace(in.Role),
		Email:      models.NormalizeEmail(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Department: strings.TrimSpace(in.Department),
	}
	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}
