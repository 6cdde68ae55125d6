// Package userctx carries the authenticated user through request context
package userctx

import (
	"context"

	"github.com/nkiryanov/sharefin/internal/models"
)

type userKey struct{}

func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}
