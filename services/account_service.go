package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

type AccountService struct {
	db     *gorm.DB
	mailer utils.Mailer
	appURL string
	logger *slog.Logger
}

func NewAccountService(db *gorm.DB, mailer utils.Mailer, appURL string, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = utils.LogMailer{Logger: logger}
	}
	return &AccountService{db: db, mailer: mailer, appURL: appURL, logger: logger}
}

// ResolveAccount tìm tài khoản theo uuid hoặc email.
func (s *AccountService) ResolveAccount(ctx context.Context, idOrEmail string) (*models.Account, error) {
	idOrEmail = strings.TrimSpace(idOrEmail)
	q := s.db.WithContext(ctx).Preload("Profile")
	var acc models.Account
	var err error
	if id, perr := uuid.Parse(idOrEmail); perr == nil {
		err = q.First(&acc, "id = ?", id).Error
	} else if strings.Contains(idOrEmail, "@") {
		err = q.Where("email = ?", models.NormalizeEmail(idOrEmail)).First(&acc).Error
	} else {
		return nil, ErrAccountNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.ResolveAccount(ctx, id.String())
}

// ListDirectory trả về danh bạ các tài khoản đang hoạt động, không gồm admin.
func (s *AccountService) ListDirectory(ctx context.Context) ([]models.Account, error) {
	accounts := make([]models.Account, 0)
	err := s.db.WithContext(ctx).
		Joins("Profile").
		Where("accounts.active = ? AND \"Profile\".role <> ?", true, models.RoleAdmin).
		Order("accounts.full_name ASC").
		Find(&accounts).Error
	return accounts, err
}

// Subordinates trả về cấp dưới trực tiếp của một quản lý.
func (s *AccountService) Subordinates(ctx context.Context, managerID uuid.UUID) ([]models.Account, error) {
	if _, err := s.GetAccount(ctx, managerID); err != nil {
		return nil, err
	}
	accounts := make([]models.Account, 0)
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("manager_id = ? AND active = ?", managerID, true).
		Order("full_name ASC").
		Find(&accounts).Error
	return accounts, err
}

type CreateAccountInput struct {
	Email      string     `json:"email" binding:"required,email,max=150"`
	FullName   string     `json:"fullName" binding:"required,max=150"`
	Password   string     `json:"password" binding:"required,min=6"`
	Profile    string     `json:"profile" binding:"required"`
	ManagerID  *uuid.UUID `json:"managerId"`
	Phone      string     `json:"phone" binding:"max=50"`
	Department string     `json:"department" binding:"max=100"`
	JobTitle   string     `json:"jobTitle" binding:"max=100"`
	HiredAt    *time.Time `json:"hiredAt"`
}

// CreateAccount tạo tài khoản mới (first_login = true) và gửi email chào mừng.
func (s *AccountService) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var profile models.Profile
	err = s.db.WithContext(ctx).Where("name = ? AND active = ?", strings.TrimSpace(in.Profile), true).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidInput, in.Profile)
	}
	if err != nil {
		return nil, err
	}

	if in.ManagerID != nil {
		if _, err := s.GetAccount(ctx, *in.ManagerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown manager", ErrInvalidInput)
			}
			return nil, err
		}
	}

	email := models.NormalizeEmail(in.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	acc := models.Account{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(in.FullName),
		ProfileID:    profile.ID,
		Active:       true,
		FirstLogin:   true,
		ManagerID:    in.ManagerID,
		Phone:        strings.TrimSpace(in.Phone),
		Department:   strings.TrimSpace(in.Department),
		JobTitle:     strings.TrimSpace(in.JobTitle),
		HiredAt:      in.HiredAt,
	}
	if err := s.db.WithContext(ctx).Omit("Profile").Create(&acc).Error; err != nil {
		return nil, err
	}
	acc.Profile = profile

	body := fmt.Sprintf(`<p>Olá %s,</p><p>Sua conta de onboarding foi criada. Acesse <a href="%s">%s</a> com o e-mail %s.</p>`,
		html.EscapeString(acc.FullName), s.appURL, s.appURL, html.EscapeString(acc.Email))
	if err := s.mailer.Send(ctx, acc.Email, "Bem-vindo ao onboarding", body); err != nil {
		s.logger.WarnContext(ctx, "welcome email failed", "account_id", acc.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "account created", "account_id", acc.ID, "profile", profile.Name)
	return &acc, nil
}
