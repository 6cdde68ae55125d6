package auth

import (
	"time"

	"github.com/nkiryanov/sharefin/internal/models"
)

func pairExpiringIn(d time.Duration) models.TokenPair {
	return models.TokenPair{
		Access:  models.IssuedToken{Value: "access-value", ExpiresAt: time.Now().Add(d)},
		Refresh: models.IssuedToken{Value: "refresh-value", ExpiresAt: time.Now().Add(d)},
	}
}
