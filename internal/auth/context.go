package auth

import (
	"context"

	"github.com/voicedesk/speechadmin/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil when the request
// was authenticated by a key that is not bound to a user.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
