package auth

import (
	"context"
)

// Session carries the identity extracted from a verified JWT.
type Session struct {
	Subject string
	// OrganizationUUID is the raw tenant claim. It is validated by
	// ResolveTenant, not by the middleware, so a malformed value can be
	// reported back to the caller.
	OrganizationUUID string
}

type contextKey int

const (
	sessionContextKey contextKey = iota
)

// WithSession returns a copy of ctx carrying the session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext extracts the session from the request context.
// Returns nil if no session is present (anonymous request).
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}
