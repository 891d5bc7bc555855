package auth

import "context"

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity is what the surrounding application's session layer asserts about
// the caller. This core only validates and carries it.
type Identity struct {
	ProfileID string
	TenantID  string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
