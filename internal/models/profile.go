package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
)

// Profile is the financial account of a user, one per user
// Balance fields are changed by transaction approval only
type Profile struct {
	ID               uuid.UUID
	FullName         string
	AvatarURL        string
	KYCStatus        string
	IsAdmin          bool
	Balance          decimal.Decimal
	TotalEarnings    decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal

	// Incremented on every balance write
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileDetails is a partial update of the user editable profile fields
// Nil fields are left unchanged
type ProfileDetails struct {
	FullName  *string
	AvatarURL *string
}
