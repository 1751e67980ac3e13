package services

import (
	"context"
	"errors"

	"cloud.google.com/go/auth/credentials/idtoken"
)

// IDTokenVerifier xác minh Google ID token với GOOGLE_CLIENT_ID.
type IDTokenVerifier struct {
	ClientID string
}

func (v IDTokenVerifier) VerifyEmail(ctx context.Context, token string) (string, error) {
	payload, err := idtoken.Validate(ctx, token, v.ClientID)
	if err != nil {
		return "", err
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", errors.New("google token không có email")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return "", errors.New("email google chưa được xác minh")
	}
	return email, nil
}
