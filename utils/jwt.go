package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token đã hết hạn")
	ErrTokenInvalid = errors.New("token không hợp lệ")
	ErrWeakSecret   = errors.New("JWT secret phải dài ít nhất 32 byte")
)

const MinSecretLength = 32

// Claims là payload của access token.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Profile    string `json:"profile"`
	FirstLogin bool   `json:"first_login"`
	jwt.RegisteredClaims
}

// UserID trả về subject của token.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenSubject là dữ liệu tài khoản cần để ký token.
type TokenSubject struct {
	AccountID  string
	Email      string
	Name       string
	Role       string
	Profile    string
	FirstLogin bool
}

type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret, issuer, audience string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl phải lớn hơn 0, nhận %s", ttl)
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// WithClock thay đồng hồ, chỉ dùng trong test.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// GenerateToken ký access token HS256, trả về token và thời điểm hết hạn.
func (t *TokenIssuer) GenerateToken(sub TokenSubject) (string, time.Time, error) {
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email:      sub.Email,
		Name:       sub.Name,
		Role:       sub.Role,
		Profile:    sub.Profile,
		FirstLogin: sub.FirstLogin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.AccountID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken kiểm tra chữ ký, issuer, audience và hạn dùng, không có độ lệch đồng hồ.
func (t *TokenIssuer) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
