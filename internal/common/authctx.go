package common

import "context"

type userIDKey struct{}

// WithUserID records the authenticated user's id on the context. The auth
// middleware sets it once per request after token validation.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID reports the authenticated user's id, if the request carried one.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok
}
