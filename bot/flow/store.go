package flow

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSessionNotFound is returned by Get when the user has no session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict is returned by Put when the stored version no
	// longer matches the expected one.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store persists sessions keyed by user identity. Writes are conditional on
// the version the caller read, so a dispatch that lost a race fails cleanly
// instead of overwriting a newer session.
//
// Put with expectedVersion 0 creates the session and fails with
// ErrVersionConflict if one already exists.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, session *Session, expectedVersion int64) error
	Delete(ctx context.Context, userID string) error

	// ExpireOlderThan deletes sessions idle for longer than age and
	// returns how many were removed. The delete is conditional on the
	// version observed during the scan: a session updated mid-sweep is
	// left alone.
	ExpireOlderThan(ctx context.Context, age time.Duration) (int, error)
}
