package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

func TestLoginAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "Gestão", models.RoleManager)
	acc := createAccount(t, db, "gestor@vivo.com.br", "Gestor@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	res, err := auth.Login(ctx, "  Gestor@Vivo.com.br ", "Gestor@123", false, "127.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.Success || res.Token == "" || res.RefreshToken == "" {
		t.Fatalf("expected successful login, got %+v", res)
	}
	if res.User.ID != acc.ID || res.User.Role != models.RoleManager || !res.User.FirstLogin {
		t.Fatalf("unexpected user info %+v", res.User)
	}
	if d := res.SessionExpiresAt.Sub(time.Now()); d > 2*time.Hour || d < 119*time.Minute {
		t.Fatalf("session should last the token ttl, got %s", d)
	}

	ident, err := auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ident.AccountID != acc.ID || ident.Role != models.RoleManager || ident.Profile != "Gestão" {
		t.Fatalf("unexpected identity %+v", ident)
	}
	if !ident.Can(models.PermViewTeam) || ident.Can(models.PermManageTopics) {
		t.Fatal("manager permissions wrong")
	}

	var stored models.Account
	db.First(&stored, "id = ?", acc.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("expected last_login_at to be set")
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	createAccount(t, db, "old@vivo.com.br", "Senha@123", profile, false)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	wrong, err := auth.Login(ctx, "qa@vivo.com.br", "errada", false, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	unknown, err := auth.Login(ctx, "nobody@vivo.com.br", "Senha@123", false, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if wrong.Success || unknown.Success {
		t.Fatal("expected failures")
	}
	if wrong.Message != unknown.Message || wrong.Message != ErrInvalidCredentials.Error() {
		t.Fatalf("messages differ: %q vs %q", wrong.Message, unknown.Message)
	}

	inactive, _ := auth.Login(ctx, "old@vivo.com.br", "Senha@123", false, "", "")
	if inactive.Success || inactive.Message != ErrInactiveAccount.Error() {
		t.Fatalf("expected inactive message, got %+v", inactive)
	}

	var sessions int64
	db.Model(&models.Session{}).Count(&sessions)
	if sessions != 0 {
		t.Fatalf("failed logins must not create sessions, got %d", sessions)
	}
}

func TestLoginThrottle(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	auth.SetLimiter(utils.NewMemoryLimiter(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := auth.Login(ctx, "qa@vivo.com.br", "errada", false, "", ""); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", ""); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestReloginInvalidatesPreviousSession(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	first, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	second, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	if !first.Success || !second.Success {
		t.Fatal("expected both logins to succeed")
	}

	if _, err := auth.Authenticate(ctx, first.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token should be rejected, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, second.Token); err != nil {
		t.Fatalf("new token rejected: %v", err)
	}
	if res, _ := auth.Refresh(ctx, first.RefreshToken); res.Success {
		t.Fatal("old refresh token should be rejected")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", true, "", "")
	refreshed, err := auth.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !refreshed.Success || refreshed.RefreshToken == login.RefreshToken || refreshed.Token == login.Token {
		t.Fatalf("expected rotated tokens, got %+v", refreshed)
	}
	if d := refreshed.SessionExpiresAt.Sub(time.Now()); d < 167*time.Hour {
		t.Fatalf("remember-me session should keep its long ttl, got %s", d)
	}

	if _, err := auth.Authenticate(ctx, login.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token from before refresh should be rejected, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, refreshed.Token); err != nil {
		t.Fatalf("refreshed token rejected: %v", err)
	}
	if again, _ := auth.Refresh(ctx, login.RefreshToken); again.Success {
		t.Fatal("refresh token must be single use")
	}
}

func TestRefreshRejectsUnknownAndExpiredWithoutChanges(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	var before models.Session
	if err := db.First(&before).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}

	unknown, err := auth.Refresh(ctx, "does-not-exist")
	if err != nil || unknown.Success {
		t.Fatalf("unknown refresh token should fail softly, got %+v, %v", unknown, err)
	}
	empty, _ := auth.Refresh(ctx, "")
	if empty.Success {
		t.Fatal("empty refresh token should fail")
	}

	auth.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	expired, err := auth.Refresh(ctx, login.RefreshToken)
	if err != nil || expired.Success {
		t.Fatalf("expired session should fail, got %+v, %v", expired, err)
	}

	var after models.Session
	if err := db.First(&after).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if after.RefreshTokenHash != before.RefreshTokenHash || after.AccessTokenHash != before.AccessTokenHash ||
		!after.ExpiresAt.Equal(before.ExpiresAt) {
		t.Fatal("failed refresh must not modify the session")
	}
}

func TestLogout(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	auth.Logout(ctx, login.Token)
	if _, err := auth.Authenticate(ctx, login.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token to be revoked, got %v", err)
	}
	auth.Logout(ctx, "")
}

func TestAuthenticateRejectsDeactivatedAccount(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	acc := createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("active", false)
	if _, err := auth.Authenticate(ctx, login.Token); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func TestPasswordResetFlow(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	mailer := &captureMailer{}
	auth.SetMailer(mailer)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")

	if !auth.RequestPasswordReset(ctx, "nobody@vivo.com.br") {
		t.Fatal("unknown email must still report success")
	}
	if len(mailer.messages()) != 0 {
		t.Fatal("no email should be sent for unknown addresses")
	}

	if !auth.RequestPasswordReset(ctx, "QA@vivo.com.br") {
		t.Fatal("expected success")
	}
	msgs := mailer.messages()
	if len(msgs) != 1 || msgs[0].to != "qa@vivo.com.br" {
		t.Fatalf("expected one reset email, got %+v", msgs)
	}
	m := resetTokenPattern.FindStringSubmatch(msgs[0].body)
	if m == nil {
		t.Fatalf("reset link not found in %q", msgs[0].body)
	}
	token := m[1]

	if err := auth.ResetPassword(ctx, token, "123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short password should be rejected, got %v", err)
	}
	if err := auth.ResetPassword(ctx, token, "NovaSenha@1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := auth.ResetPassword(ctx, token, "OutraSenha@1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("token must be single use, got %v", err)
	}

	if _, err := auth.Authenticate(ctx, login.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("sessions should be revoked after reset, got %v", err)
	}
	old, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")
	if old.Success {
		t.Fatal("old password must stop working")
	}
	fresh, _ := auth.Login(ctx, "qa@vivo.com.br", "NovaSenha@1", false, "", "")
	if !fresh.Success || fresh.User.FirstLogin {
		t.Fatalf("expected login with new password and first_login cleared, got %+v", fresh)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	mailer := &captureMailer{}
	auth.SetMailer(mailer)
	ctx := context.Background()

	auth.RequestPasswordReset(ctx, "qa@vivo.com.br")
	token := resetTokenPattern.FindStringSubmatch(mailer.messages()[0].body)[1]

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := auth.ResetPassword(ctx, token, "NovaSenha@1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	acc := createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	login, _ := auth.Login(ctx, "qa@vivo.com.br", "Senha@123", false, "", "")

	if err := auth.ChangePassword(ctx, acc.ID, "errada", "NovaSenha@1", login.Token); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := auth.ChangePassword(ctx, acc.ID, "Senha@123", "NovaSenha@1", login.Token); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := auth.Authenticate(ctx, login.Token); err != nil {
		t.Fatalf("current session should survive a password change: %v", err)
	}
	res, _ := auth.Login(ctx, "qa@vivo.com.br", "NovaSenha@1", false, "", "")
	if !res.Success {
		t.Fatalf("login with new password failed: %+v", res)
	}
}

type fakeGoogle struct {
	email string
	err   error
}

func (g fakeGoogle) VerifyEmail(context.Context, string) (string, error) {
	return g.email, g.err
}

func TestLoginWithGoogle(t *testing.T) {
	db := newTestDB(t)
	profile := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "qa@vivo.com.br", "Senha@123", profile, true)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	if _, err := auth.LoginWithGoogle(ctx, "id-token", "", ""); !errors.Is(err, ErrGoogleDisabled) {
		t.Fatalf("expected ErrGoogleDisabled, got %v", err)
	}

	auth.SetGoogleVerifier(fakeGoogle{email: "QA@vivo.com.br"})
	res, err := auth.LoginWithGoogle(ctx, "id-token", "", "")
	if err != nil || !res.Success {
		t.Fatalf("expected google login, got %+v, %v", res, err)
	}

	auth.SetGoogleVerifier(fakeGoogle{email: "stranger@gmail.com"})
	res, _ = auth.LoginWithGoogle(ctx, "id-token", "", "")
	if res.Success {
		t.Fatal("google login must not create accounts")
	}

	auth.SetGoogleVerifier(fakeGoogle{err: errors.New("bad token")})
	res, _ = auth.LoginWithGoogle(ctx, "id-token", "", "")
	if res.Success || res.Message != ErrInvalidToken.Error() {
		t.Fatalf("expected invalid token message, got %+v", res)
	}
}
