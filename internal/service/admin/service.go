// Package admin backs the operator API: session inspection, manual resets,
// on-demand expiry sweeps and API key authentication.
package admin

import (
	"IzdatBot/bot/flow"
	"IzdatBot/entity"
	"IzdatBot/internal/config"
	"IzdatBot/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ApiKeys checks a key against the key store and returns its owner.
type ApiKeys interface {
	CheckApiKey(key string) (string, error)
}

type Service struct {
	store     flow.Store
	ttl       time.Duration
	staticKey string
	keys      ApiKeys
	log       *slog.Logger
}

// NewAdminService creates the service. keys may be nil when MongoDB is
// disabled; the static key from config still works then.
func NewAdminService(conf *config.Config, store flow.Store, keys ApiKeys, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		ttl:       conf.Flow.SessionTTL,
		staticKey: conf.Listen.ApiKey,
		keys:      keys,
		log:       logger.With(sl.Module("admin service")),
	}
}

func (s *Service) GetSession(ctx context.Context, userID string) (*flow.Session, error) {
	return s.store.Get(ctx, userID)
}

func (s *Service) ResetConversation(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("conversation reset by operator", slog.String("user_id", userID))
	return nil
}

func (s *Service) ExpireSessions(ctx context.Context) (int, error) {
	removed, err := s.store.ExpireOlderThan(ctx, s.ttl)
	if err != nil {
		return 0, err
	}
	s.log.Info("manual expiry sweep", slog.Int("removed", removed))
	return removed, nil
}

// AuthenticateByToken accepts the configured static key or any key present
// in the key store.
func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if s.staticKey != "" && token == s.staticKey {
		return &entity.UserAuth{Username: "admin"}, nil
	}
	if s.keys != nil {
		username, err := s.keys.CheckApiKey(token)
		if err == nil {
			return &entity.UserAuth{Username: username}, nil
		}
	}
	return nil, fmt.Errorf("unknown api key")
}

// ValidateToken adapts AuthenticateByToken for the WebSocket upgrade path.
func (s *Service) ValidateToken(token string) (string, error) {
	user, err := s.AuthenticateByToken(token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
