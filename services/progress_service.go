package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/onboarding-backend/models"
)

const (
	activityListLimit    = 20
	summaryActivityLimit = 10
	suggestedTopicsLimit = 3
)

// ActivityNotifier nhận hoạt động mới để đẩy tới dashboard.
type ActivityNotifier interface {
	NotifyActivity(entry models.ActivityLogEntry)
}

type TopicProgress struct {
	TopicID       uint       `json:"topicId"`
	Title         string     `json:"title"`
	Category      string     `json:"category"`
	EstimatedTime string     `json:"estimatedTime"`
	Started       bool       `json:"started"`
	Completed     bool       `json:"completed"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	TimeSpent     string     `json:"timeSpent,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type SuggestedTopic struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	EstimatedTime string `json:"estimatedTime"`
}

// MemberCard là một dòng trên dashboard của quản lý.
type MemberCard struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Department      string     `json:"department,omitempty"`
	ManagerID       *uuid.UUID `json:"managerId,omitempty"`
	StartDate       time.Time  `json:"startDate"`
	CompletedTopics int        `json:"completedTopics"`
	TotalTopics     int        `json:"totalTopics"`
	Progress        int        `json:"progress"`
	Status          string     `json:"status"`
}

type MemberSummary struct {
	Member              MemberCard                `json:"member"`
	Topics              []TopicProgress           `json:"topics"`
	TotalTopics         int                       `json:"totalTopics"`
	CompletedCount      int                       `json:"completedCount"`
	InProgressCount     int                       `json:"inProgressCount"`
	NotStartedCount     int                       `json:"notStartedCount"`
	TotalEstimated      string                    `json:"totalEstimated"`
	TotalSpent          string                    `json:"totalSpent"`
	AverageTopicTime    string                    `json:"averageTopicTime"`
	RecentActivity      []models.ActivityLogEntry `json:"recentActivity"`
	SuggestedNextTopics []SuggestedTopic          `json:"suggestedNextTopics"`
}

type ProgressService struct {
	db              *gorm.DB
	logger          *slog.Logger
	activityEnabled bool
	notifier        ActivityNotifier
	now             func() time.Time
}

func NewProgressService(db *gorm.DB, activityEnabled bool, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		db:              db,
		logger:          logger,
		activityEnabled: activityEnabled,
		now:             time.Now,
	}
}

func (s *ProgressService) SetNotifier(n ActivityNotifier) { s.notifier = n }

func (s *ProgressService) activeTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&topics).Error
	return topics, err
}

func (s *ProgressService) loadAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Preload("Profile").First(&acc, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *ProgressService) activeTopic(ctx context.Context, topicID uint) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.WithContext(ctx).Where("id = ? AND active = ?", topicID, true).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// GetUserProgress trả về một dòng cho mỗi topic đang hoạt động, theo id tăng dần.
func (s *ProgressService) GetUserProgress(ctx context.Context, accountID uuid.UUID) ([]TopicProgress, error) {
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.topicProgress(ctx, accountID)
}

func (s *ProgressService) topicProgress(ctx context.Context, accountID uuid.UUID) ([]TopicProgress, error) {
	topics, err := s.activeTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	var records []models.ProgressRecord
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	byTopic := make(map[uint]models.ProgressRecord, len(records))
	for _, r := range records {
		byTopic[r.TopicID] = r
	}

	out := make([]TopicProgress, 0, len(topics))
	for _, t := range topics {
		p := TopicProgress{
			TopicID:       t.ID,
			Title:         t.Title,
			Category:      t.Category,
			EstimatedTime: t.EstimatedTime,
		}
		if r, ok := byTopic[t.ID]; ok {
			startedAt := r.StartedAt
			p.Started = true
			p.Completed = r.Completed
			p.StartedAt = &startedAt
			p.CompletedAt = r.CompletedAt
			p.TimeSpent = r.TimeSpent
			p.Notes = r.Notes
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProgressService) findRecord(ctx context.Context, accountID uuid.UUID, topicID uint) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := s.db.WithContext(ctx).Where("account_id = ? AND topic_id = ?", accountID, topicID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// insertRecord tạo bản ghi nếu chưa có, dựa vào unique index (account_id, topic_id).
// Trả về true khi bản ghi mới thực sự được chèn.
func (s *ProgressService) insertRecord(ctx context.Context, rec *models.ProgressRecord) (bool, error) {
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "topic_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkTopicCompleted là idempotent: topic đã hoàn thành giữ nguyên ngày hoàn thành đầu tiên.
func (s *ProgressService) MarkTopicCompleted(ctx context.Context, accountID uuid.UUID, topicID uint) (*models.ProgressRecord, error) {
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	topic, err := s.activeTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inserted, err := s.insertRecord(ctx, &models.ProgressRecord{
		AccountID:   accountID,
		TopicID:     topicID,
		Completed:   true,
		StartedAt:   now,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}

	changed := inserted
	if !inserted {
		res := s.db.WithContext(ctx).Model(&models.ProgressRecord{}).
			Where("account_id = ? AND topic_id = ? AND completed = ?", accountID, topicID, false).
			Updates(map[string]interface{}{"completed": true, "completed_at": now})
		if res.Error != nil {
			return nil, fmt.Errorf("complete progress: %w", res.Error)
		}
		changed = res.RowsAffected > 0
	}

	rec, err := s.findRecord(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("reload progress: %w", err)
	}
	if changed {
		s.logActivity(ctx, accountID, "Completed topic "+topic.Title, topic.Title, models.ActivityCompleted)
	}
	return rec, nil
}

// StartTopic mở bản ghi tiến độ cho topic, không làm gì nếu đã có.
func (s *ProgressService) StartTopic(ctx context.Context, accountID uuid.UUID, topicID uint) (*models.ProgressRecord, error) {
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	topic, err := s.activeTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.insertRecord(ctx, &models.ProgressRecord{
		AccountID: accountID,
		TopicID:   topicID,
		StartedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}
	rec, err := s.findRecord(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("reload progress: %w", err)
	}
	if inserted {
		s.logActivity(ctx, accountID, "Started topic "+topic.Title, topic.Title, models.ActivityStarted)
	}
	return rec, nil
}

// UpdateTopicProgress ghi thời gian đã học và ghi chú. Trường nil được giữ nguyên.
func (s *ProgressService) UpdateTopicProgress(ctx context.Context, accountID uuid.UUID, topicID uint, timeSpent, notes *string) (*models.ProgressRecord, error) {
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	topic, err := s.activeTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	if _, err := s.insertRecord(ctx, &models.ProgressRecord{
		AccountID: accountID,
		TopicID:   topicID,
		StartedAt: s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}

	updates := map[string]interface{}{}
	if timeSpent != nil {
		updates["time_spent"] = *timeSpent
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.ProgressRecord{}).
			Where("account_id = ? AND topic_id = ?", accountID, topicID).
			Updates(updates).Error
		if err != nil {
			return nil, fmt.Errorf("update progress: %w", err)
		}
	}

	rec, err := s.findRecord(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("reload progress: %w", err)
	}
	if len(updates) > 0 {
		s.logActivity(ctx, accountID, "Updated progress on "+topic.Title, topic.Title, models.ActivityUpdated)
	}
	return rec, nil
}

// AddActivity ghi một hoạt động. Trả về nil, nil khi nhật ký bị tắt.
func (s *ProgressService) AddActivity(ctx context.Context, accountID uuid.UUID, action, topicTitle string, kind models.ActivityType) (*models.ActivityLogEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: activity type %q", ErrInvalidInput, kind)
	}
	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if !s.activityEnabled {
		return nil, nil
	}
	entry := models.ActivityLogEntry{
		AccountID:  accountID,
		Action:     action,
		TopicTitle: topicTitle,
		Type:       kind,
		OccurredAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyActivity(entry)
	}
	return &entry, nil
}

// logActivity ghi nhật ký kiểu best effort, lỗi chỉ được log.
func (s *ProgressService) logActivity(ctx context.Context, accountID uuid.UUID, action, topicTitle string, kind models.ActivityType) {
	if _, err := s.AddActivity(ctx, accountID, action, topicTitle, kind); err != nil {
		s.logger.WarnContext(ctx, "activity log failed", "account_id", accountID, "type", kind, "error", err)
	}
}

// ListActivity trả về tối đa limit hoạt động mới nhất (mặc định 20).
func (s *ProgressService) ListActivity(ctx context.Context, accountID uuid.UUID, limit int) ([]models.ActivityLogEntry, error) {
	if limit <= 0 || limit > activityListLimit {
		limit = activityListLimit
	}
	entries := make([]models.ActivityLogEntry, 0)
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("occurred_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func memberCard(acc *models.Account, completed, total int) MemberCard {
	role := acc.JobTitle
	if role == "" {
		role = acc.Profile.Name
	}
	start := acc.CreatedAt
	if acc.HiredAt != nil {
		start = *acc.HiredAt
	}
	progress := ProgressPercent(completed, total)
	return MemberCard{
		ID:              acc.ID,
		Name:            acc.FullName,
		Email:           acc.Email,
		Role:            role,
		Department:      acc.Department,
		ManagerID:       acc.ManagerID,
		StartDate:       start,
		CompletedTopics: completed,
		TotalTopics:     total,
		Progress:        progress,
		Status:          StatusFromProgress(progress),
	}
}

// AggregateMemberSummary gom tiến độ, thời gian và hoạt động gần đây của một nhân viên.
func (s *ProgressService) AggregateMemberSummary(ctx context.Context, accountID uuid.UUID) (*MemberSummary, error) {
	acc, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	topics, err := s.topicProgress(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum := &MemberSummary{
		Topics:              topics,
		TotalTopics:         len(topics),
		SuggestedNextTopics: make([]SuggestedTopic, 0, suggestedTopicsLimit),
	}
	var estimated, completedEstimated int
	for _, t := range topics {
		minutes := ParseTimeToMinutes(t.EstimatedTime)
		estimated += minutes
		switch {
		case t.Completed:
			sum.CompletedCount++
			completedEstimated += minutes
		case t.Started:
			sum.InProgressCount++
		default:
			sum.NotStartedCount++
		}
		if !t.Completed && len(sum.SuggestedNextTopics) < suggestedTopicsLimit {
			sum.SuggestedNextTopics = append(sum.SuggestedNextTopics, SuggestedTopic{
				ID:            t.TopicID,
				Title:         t.Title,
				Category:      t.Category,
				EstimatedTime: t.EstimatedTime,
			})
		}
	}

	spent := EstimatedSpentMinutes(completedEstimated)
	average := 0
	if sum.CompletedCount > 0 {
		average = spent / sum.CompletedCount
	}
	sum.TotalEstimated = FormatMinutes(estimated)
	sum.TotalSpent = FormatMinutes(spent)
	sum.AverageTopicTime = FormatMinutes(average)
	sum.Member = memberCard(acc, sum.CompletedCount, sum.TotalTopics)

	activity, err := s.ListActivity(ctx, accountID, activityListLimit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if len(activity) > summaryActivityLimit {
		activity = activity[:summaryActivityLimit]
	}
	sum.RecentActivity = activity
	return sum, nil
}

// ListTeamMembers trả về mọi tài khoản đang hoạt động không phải admin, kèm tiến độ.
func (s *ProgressService) ListTeamMembers(ctx context.Context) ([]MemberCard, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Joins("Profile").
		Where("accounts.active = ? AND \"Profile\".role <> ?", true, models.RoleAdmin).
		Order("accounts.full_name ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Topic{}).Where("active = ?", true).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}

	type completedRow struct {
		AccountID uuid.UUID
		Completed int
	}
	var rows []completedRow
	err = s.db.WithContext(ctx).Model(&models.ProgressRecord{}).
		Select("progress_records.account_id AS account_id, COUNT(*) AS completed").
		Joins("JOIN topics ON topics.id = progress_records.topic_id").
		Where("progress_records.completed = ? AND topics.active = ?", true, true).
		Group("progress_records.account_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}
	completed := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		completed[r.AccountID] = r.Completed
	}

	cards := make([]MemberCard, 0, len(accounts))
	for i := range accounts {
		cards = append(cards, memberCard(&accounts[i], completed[accounts[i].ID], int(total)))
	}
	return cards, nil
}
