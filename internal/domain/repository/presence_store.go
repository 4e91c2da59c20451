package repository

import "context"

// PresenceStore holds the per-user liveness records. Writes are fire and
// forget from the caller's point of view; other clients' online-user queries
// observe them eventually.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string, online bool) error
	ListOnline(ctx context.Context) ([]string, error)
}
