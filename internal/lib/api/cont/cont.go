// Package cont carries request-scoped values through handler chains.
package cont

import (
	"context"

	"IzdatBot/entity"
)

type ctxKey int

const userKey ctxKey = iota

func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func GetUser(ctx context.Context) (*entity.UserAuth, bool) {
	user, ok := ctx.Value(userKey).(*entity.UserAuth)
	return user, ok
}
