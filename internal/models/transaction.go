package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
)

// Largest value of NUMERIC(15, 2) money columns
var MaxAmount = decimal.RequireFromString("9999999999999.99")

type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Owner display name, set only when listing transactions of all users
	UserName string
}

func IsTransactionType(value string) bool {
	return value == TransactionTypeDeposit || value == TransactionTypeWithdraw
}
