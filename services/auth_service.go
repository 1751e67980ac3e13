package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

const msgLoginFailed = "login failed, please try again"

type AuthConfig struct {
	RememberMeTTL time.Duration
	ResetTokenTTL time.Duration
	AppURL        string
}

// AccountInfo là thông tin tài khoản trả về cho client sau khi đăng nhập.
type AccountInfo struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	Profile    string      `json:"profile"`
	FirstLogin bool        `json:"firstLogin"`
	ManagerID  *uuid.UUID  `json:"managerId,omitempty"`
}

type LoginResult struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message"`
	Token            string       `json:"token,omitempty"`
	RefreshToken     string       `json:"refreshToken,omitempty"`
	ExpiresAt        *time.Time   `json:"expiresAt,omitempty"`
	SessionExpiresAt *time.Time   `json:"sessionExpiresAt,omitempty"`
	User             *AccountInfo `json:"user,omitempty"`
}

func failed(msg string) *LoginResult {
	return &LoginResult{Success: false, Message: msg}
}

// Identity là người gọi đã xác thực, gắn vào request context.
type Identity struct {
	AccountID  uuid.UUID
	Email      string
	Name       string
	Role       models.Role
	Profile    string
	FirstLogin bool
	ExpiresAt  time.Time
}

func (i *Identity) Can(p models.Permission) bool {
	return i.Role.Can(p)
}

// GoogleVerifier xác minh Google ID token và trả về email đã xác thực.
type GoogleVerifier interface {
	VerifyEmail(ctx context.Context, idToken string) (string, error)
}

type AuthService struct {
	db      *gorm.DB
	tokens  *utils.TokenIssuer
	cfg     AuthConfig
	limiter utils.LoginLimiter
	mailer  utils.Mailer
	google  GoogleVerifier
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RememberMeTTL < tokens.TTL() {
		cfg.RememberMeTTL = tokens.TTL()
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		db:      db,
		tokens:  tokens,
		cfg:     cfg,
		limiter: utils.NoopLimiter{},
		mailer:  utils.LogMailer{Logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

func (s *AuthService) SetLimiter(l utils.LoginLimiter) { s.limiter = l }
func (s *AuthService) SetMailer(m utils.Mailer)        { s.mailer = m }

// SetGoogleVerifier bật đăng nhập Google. nil là tắt.
func (s *AuthService) SetGoogleVerifier(g GoogleVerifier) { s.google = g }

func (s *AuthService) GoogleEnabled() bool { return s.google != nil }

// Login kiểm tra email/mật khẩu rồi thay toàn bộ session cũ bằng một session mới.
// Sai email và sai mật khẩu trả về cùng một thông báo.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool, clientIP, userAgent string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	blocked, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "login limiter unavailable", "error", err)
	}
	if blocked {
		return nil, ErrTooManyAttempts
	}

	var acc models.Account
	err = s.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.recordFailure(ctx, email)
		return failed(ErrInvalidCredentials.Error()), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "login lookup failed", "error", err)
		return failed(msgLoginFailed), nil
	}

	if !utils.CheckPassword(acc.PasswordHash, password) {
		s.recordFailure(ctx, email)
		return failed(ErrInvalidCredentials.Error()), nil
	}
	if !acc.Active {
		return failed(ErrInactiveAccount.Error()), nil
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "login limiter reset failed", "error", err)
	}
	return s.startSession(ctx, &acc, rememberMe, clientIP, userAgent), nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "login limiter update failed", "error", err)
	}
}

// LoginWithGoogle đăng nhập tài khoản đã tồn tại bằng Google ID token. Không tạo tài khoản mới.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken, clientIP, userAgent string) (*LoginResult, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	email, err := s.google.VerifyEmail(ctx, idToken)
	if err != nil {
		s.logger.InfoContext(ctx, "google token rejected", "error", err)
		return failed(ErrInvalidToken.Error()), nil
	}

	var acc models.Account
	err = s.db.WithContext(ctx).Preload("Profile").Where("email = ?", models.NormalizeEmail(email)).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(ErrInvalidCredentials.Error()), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "google login lookup failed", "error", err)
		return failed(msgLoginFailed), nil
	}
	if !acc.Active {
		return failed(ErrInactiveAccount.Error()), nil
	}
	return s.startSession(ctx, &acc, false, clientIP, userAgent), nil
}

type tokenPair struct {
	access        string
	accessExpires time.Time
	refresh       string
}

func (s *AuthService) issueTokens(acc *models.Account) (tokenPair, error) {
	access, exp, err := s.tokens.GenerateToken(utils.TokenSubject{
		AccountID:  acc.ID.String(),
		Email:      acc.Email,
		Name:       acc.FullName,
		Role:       string(acc.Role()),
		Profile:    acc.Profile.Name,
		FirstLogin: acc.FirstLogin,
	})
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := utils.NewOpaqueToken()
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{access: access, accessExpires: exp, refresh: refresh}, nil
}

func (s *AuthService) sessionTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return s.cfg.RememberMeTTL
	}
	return s.tokens.TTL()
}

func (s *AuthService) startSession(ctx context.Context, acc *models.Account, rememberMe bool, clientIP, userAgent string) *LoginResult {
	pair, err := s.issueTokens(acc)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue tokens failed", "error", err)
		return failed(msgLoginFailed)
	}

	now := s.now().UTC()
	session := models.Session{
		AccountID:        acc.ID,
		AccessTokenHash:  utils.HashToken(pair.access),
		RefreshTokenHash: utils.HashToken(pair.refresh),
		ExpiresAt:        now.Add(s.sessionTTL(rememberMe)),
		RememberMe:       rememberMe,
		IPAddress:        truncate(clientIP, 64),
		UserAgent:        truncate(userAgent, 512),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", acc.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&session).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).Where("id = ?", acc.ID).Update("last_login_at", now).Error
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "create session failed", "account_id", acc.ID, "error", err)
		return failed(msgLoginFailed)
	}

	s.logger.InfoContext(ctx, "login succeeded", "account_id", acc.ID, "remember_me", rememberMe)
	return s.successResult("login successful", acc, pair, session.ExpiresAt)
}

func (s *AuthService) successResult(msg string, acc *models.Account, pair tokenPair, sessionExpires time.Time) *LoginResult {
	return &LoginResult{
		Success:          true,
		Message:          msg,
		Token:            pair.access,
		RefreshToken:     pair.refresh,
		ExpiresAt:        &pair.accessExpires,
		SessionExpiresAt: &sessionExpires,
		User:             accountInfo(acc),
	}
}

func accountInfo(acc *models.Account) *AccountInfo {
	return &AccountInfo{
		ID:         acc.ID,
		Email:      acc.Email,
		Name:       acc.FullName,
		Role:       acc.Role(),
		Profile:    acc.Profile.Name,
		FirstLogin: acc.FirstLogin,
		ManagerID:  acc.ManagerID,
	}
}

// Refresh đổi refresh token lấy cặp token mới trên cùng session.
// Token không khớp hoặc session hết hạn thì không thay đổi gì.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return failed(ErrInvalidToken.Error()), nil
	}
	oldHash := utils.HashToken(refreshToken)
	now := s.now().UTC()

	var session models.Session
	err := s.db.WithContext(ctx).Where("refresh_token_hash = ?", oldHash).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(ErrInvalidToken.Error()), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh lookup failed", "error", err)
		return failed(msgLoginFailed), nil
	}
	if !session.ExpiresAt.After(now) {
		return failed(ErrInvalidToken.Error()), nil
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).Preload("Profile").First(&acc, "id = ?", session.AccountID).Error; err != nil {
		s.logger.ErrorContext(ctx, "refresh account lookup failed", "account_id", session.AccountID, "error", err)
		return failed(ErrInvalidToken.Error()), nil
	}
	if !acc.Active {
		return failed(ErrInactiveAccount.Error()), nil
	}

	pair, err := s.issueTokens(&acc)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue tokens failed", "error", err)
		return failed(msgLoginFailed), nil
	}
	expires := now.Add(s.sessionTTL(session.RememberMe))

	// điều kiện refresh_token_hash cũ chặn hai lần refresh song song cùng thắng
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token_hash = ?", session.ID, oldHash).
		Updates(map[string]interface{}{
			"access_token_hash":  utils.HashToken(pair.access),
			"refresh_token_hash": utils.HashToken(pair.refresh),
			"expires_at":         expires,
		})
	if res.Error != nil {
		s.logger.ErrorContext(ctx, "refresh update failed", "error", res.Error)
		return failed(msgLoginFailed), nil
	}
	if res.RowsAffected == 0 {
		return failed(ErrInvalidToken.Error()), nil
	}
	return s.successResult("token refreshed", &acc, pair, expires), nil
}

// Logout xoá session giữ access token. Lỗi chỉ được ghi log.
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	err := s.db.WithContext(ctx).Where("access_token_hash = ?", utils.HashToken(accessToken)).
		Delete(&models.Session{}).Error
	if err != nil {
		s.logger.WarnContext(ctx, "logout failed", "error", err)
	}
}

// VerifyAccessToken chỉ kiểm tra chữ ký, issuer, audience và hạn dùng, không tra session.
func (s *AuthService) VerifyAccessToken(accessToken string) error {
	if _, err := s.tokens.VerifyToken(accessToken); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// Authenticate kiểm tra token và yêu cầu session còn sống đang giữ token đó.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.tokens.VerifyToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Session{}).
		Where("access_token_hash = ? AND account_id = ? AND expires_at > ?", utils.HashToken(accessToken), accountID, s.now().UTC()).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if count == 0 {
		return nil, ErrInvalidToken
	}

	var acc models.Account
	if err := s.db.WithContext(ctx).Select("id", "active").First(&acc, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !acc.Active {
		return nil, ErrInactiveAccount
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok {
		role = models.RoleMember
	}
	ident := &Identity{
		AccountID:  accountID,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       role,
		Profile:    claims.Profile,
		FirstLogin: claims.FirstLogin,
	}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident, nil
}

// RequestPasswordReset luôn trả về true để không lộ email nào tồn tại.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) bool {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&acc).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.ErrorContext(ctx, "password reset lookup failed", "error", err)
		}
		return true
	}
	if !acc.Active {
		return true
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "password reset token failed", "error", err)
		return true
	}
	reset := models.PasswordReset{
		AccountID: acc.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: s.now().UTC().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		s.logger.ErrorContext(ctx, "password reset save failed", "error", err)
		return true
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.AppURL, token)
	body := fmt.Sprintf(`<p>Olá %s,</p><p>Use o link abaixo para redefinir sua senha. Ele expira em %s.</p><p><a href="%s">Redefinir senha</a></p>`,
		html.EscapeString(acc.FullName), FormatMinutes(int(s.cfg.ResetTokenTTL.Minutes())), link)
	if err := s.mailer.Send(ctx, acc.Email, "Redefinição de senha", body); err != nil {
		s.logger.ErrorContext(ctx, "password reset email failed", "account_id", acc.ID, "error", err)
	}
	return true
}

// ResetPassword đặt mật khẩu mới bằng reset token và đăng xuất mọi session.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	now := s.now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used = ? AND expires_at > ?", utils.HashToken(token), false, now).
			First(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.PasswordReset{}).Where("id = ? AND used = ?", reset.ID, false).Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidResetToken
		}

		res = tx.Model(&models.Account{}).Where("id = ?", reset.AccountID).
			Updates(map[string]interface{}{"password_hash": hashed, "first_login": false})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidResetToken
		}
		return tx.Where("account_id = ?", reset.AccountID).Delete(&models.Session{}).Error
	})
}

// ChangePassword đổi mật khẩu của chính người dùng, các session khác bị huỷ.
func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, oldPassword, newPassword, currentToken string) error {
	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if !utils.CheckPassword(acc.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Account{}).Where("id = ?", acc.ID).
			Updates(map[string]interface{}{"password_hash": hashed, "first_login": false}).Error
		if err != nil {
			return err
		}
		return tx.Where("account_id = ? AND access_token_hash <> ?", acc.ID, utils.HashToken(currentToken)).
			Delete(&models.Session{}).Error
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
