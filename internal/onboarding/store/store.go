// Package store provides the session-scoped key-value snapshot that step
// persistence reads and writes. Values are opaque bytes; absent keys return
// sentinel.ErrNotFound.
package store

import "context"

// Store is a key-value map per onboarding session.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	// GetAll returns every key of the session. An unknown session yields an
	// empty map, not an error.
	GetAll(ctx context.Context, sessionID string) (map[string][]byte, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID string) error
}
