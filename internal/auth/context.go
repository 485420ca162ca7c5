package auth

import (
	"context"

	"github.com/dukerupert/eventory/internal/model"
)

type contextKey struct{}

// AuthContext is the identity attached to an authenticated request.
type AuthContext struct {
	AdminID string
	Role    model.Role
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func AdminID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.AdminID
}

func IsSuperAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleSuperAdmin
}
