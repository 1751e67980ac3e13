package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrTopicNotFound   = fmt.Errorf("topic %w", ErrNotFound)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrGoogleDisabled     = fmt.Errorf("google sign-in is disabled: %w", ErrNotFound)

	ErrConflict     = errors.New("already exists")
	ErrEmailTaken   = fmt.Errorf("email %w", ErrConflict)
	ErrTopicExists  = fmt.Errorf("topic title %w", ErrConflict)
	ErrInvalidInput = errors.New("invalid input")
)
