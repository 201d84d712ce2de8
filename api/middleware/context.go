package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	"github.com/civictrack/civictrack-backend/pkg/enums"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity injects the verified caller into the context.
func WithIdentity(ctx context.Context, identity *pkgAuth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFromContext returns the caller resolved by Auth, if any.
func IdentityFromContext(ctx context.Context) (*pkgAuth.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(ctxIdentity).(*pkgAuth.Identity)
	return identity, ok && identity != nil
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.UserID
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Role
	}
	return ""
}
