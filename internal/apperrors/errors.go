package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// Purpose tokens: email confirmation and password reset
	ErrPurposeTokenInvalid = errors.New("token invalid or expired")
)
