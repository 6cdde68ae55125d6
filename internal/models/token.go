package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is an opaque single use token stored server side
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil until the token is exchanged or revoked
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Session tokens issued on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
