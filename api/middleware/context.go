package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxAccessID contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the jti of the access token, which keys the refresh session.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// PrincipalFromContext rebuilds the authenticated caller. ok is false for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return auth.Principal{}, false
	}
	role, err := enums.ParseUserRole(RoleFromContext(ctx))
	if err != nil {
		return auth.Principal{}, false
	}
	return auth.Principal{UserID: id, Role: role}, true
}

// WithPrincipal injects an authenticated caller into the context.
func WithPrincipal(ctx context.Context, p auth.Principal, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, p.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(p.Role))
	return context.WithValue(ctx, ctxAccessID, accessID)
}
