package session

import (
	"context"

	"IzdatBot/bot/flow"
)

// Core is what the session admin endpoints need from the application.
type Core interface {
	GetSession(ctx context.Context, userID string) (*flow.Session, error)
	ResetConversation(ctx context.Context, userID string) error
	ExpireSessions(ctx context.Context) (int, error)
}
