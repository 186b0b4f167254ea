package domain

import "context"

// SessionCache backs the login sessions. A session maps the issued token to
// the user id it belongs to; logging out deletes the mapping so a stolen
// token stops working immediately.
//
// The cache also holds the per-session redirect memory: a single slot,
// keyed by the anonymous session cookie, recording the URL an
// unauthenticated request originally wanted. Each new unauthenticated
// attempt overwrites it; a successful login consumes it.
type SessionCache interface {
	PostSession(ctx context.Context, token string, userID string) error
	GetSession(ctx context.Context, token string) (string, error)
	DelSession(ctx context.Context, token string) error

	SetRedirect(ctx context.Context, sessionKey string, url string) error
	ConsumeRedirect(ctx context.Context, sessionKey string) (string, error)
}
