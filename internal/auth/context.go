package auth

import "context"

type contextKey struct{}

var userIDContextKey = contextKey{}

// ContextWithUserID is set by the auth middleware after a successful
// session check, so handlers downstream can read the acting user.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}
