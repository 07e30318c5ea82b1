package flow

import (
	"context"
	"log/slog"
	"time"

	"IzdatBot/internal/lib/sl"
)

// Janitor deletes idle sessions in the background. Safe to run alongside
// normal dispatch: the store's expiry is conditional on the version it
// observed, so a session updated mid-sweep survives.
type Janitor struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	log      *slog.Logger
}

// NewJanitor creates an idle-session janitor.
func NewJanitor(store Store, ttl, interval time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		log:      log.With(sl.Module("flow.janitor")),
	}
}

// Run sweeps until the context is cancelled. Call in a goroutine.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := j.store.ExpireOlderThan(ctx, j.ttl)
			if err != nil {
				j.log.Error("expiry sweep", sl.Err(err))
				continue
			}
			if removed > 0 {
				j.log.Info("expired idle sessions", slog.Int("count", removed))
			}
		}
	}
}
