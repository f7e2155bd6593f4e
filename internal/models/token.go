package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        int64 // assigned by storage on insert
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Pair of tokens returned to the caller on login or refresh
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
