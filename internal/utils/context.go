package utils

import (
	"context"

	"github.com/kcgaragesales/kc-garage-sales/internal/access"
)

type contextKey string

const ContextAdminKey contextKey = "admin"

// WithAdmin stores an authorized admin capability on ctx.
func WithAdmin(ctx context.Context, admin access.Admin) context.Context {
	return context.WithValue(ctx, ContextAdminKey, admin)
}

func AdminFromContext(ctx context.Context) (access.Admin, bool) {
	admin, ok := ctx.Value(ContextAdminKey).(access.Admin)
	return admin, ok
}
