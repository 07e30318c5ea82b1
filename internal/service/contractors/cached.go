// Package contractors layers a MongoDB read cache over the spreadsheet
// repository, keeping the hot telegram-id lookup off the Sheets API quota.
package contractors

import (
	"IzdatBot/entity"
	"IzdatBot/internal/lib/sl"
	"context"
	"log/slog"
	"time"
)

// Source is the authoritative contractor repository.
type Source interface {
	FindByID(ctx context.Context, contractorID string) (*entity.Contractor, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*entity.Contractor, error)
	FuzzyFind(ctx context.Context, name string) ([]entity.Contractor, error)
	Save(ctx context.Context, c *entity.Contractor) error
	BindTelegramID(ctx context.Context, contractorID, telegramID string) error
	UpdateField(ctx context.Context, contractorID, field, value string) error
}

// Cache holds contractor snapshots.
type Cache interface {
	CacheContractor(ctx context.Context, c *entity.Contractor) error
	CachedContractorByTelegram(ctx context.Context, telegramID string, maxAge time.Duration) (*entity.Contractor, error)
	DropCachedContractor(ctx context.Context, contractorID string) error
}

// Cached is a read-through, invalidate-on-write decorator. Cache failures
// are logged and otherwise ignored; the source stays correct without it.
type Cached struct {
	source Source
	cache  Cache
	maxAge time.Duration
	log    *slog.Logger
}

func NewCached(source Source, cache Cache, maxAge time.Duration, logger *slog.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		maxAge: maxAge,
		log:    logger.With(sl.Module("contractor cache")),
	}
}

func (c *Cached) FindByTelegramID(ctx context.Context, telegramID string) (*entity.Contractor, error) {
	if cached, err := c.cache.CachedContractorByTelegram(ctx, telegramID, c.maxAge); err == nil {
		return cached, nil
	}

	found, err := c.source.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.CacheContractor(ctx, found); err != nil {
		c.log.Warn("caching contractor", sl.Err(err))
	}
	return found, nil
}

func (c *Cached) FindByID(ctx context.Context, contractorID string) (*entity.Contractor, error) {
	return c.source.FindByID(ctx, contractorID)
}

func (c *Cached) FuzzyFind(ctx context.Context, name string) ([]entity.Contractor, error) {
	return c.source.FuzzyFind(ctx, name)
}

func (c *Cached) Save(ctx context.Context, contractor *entity.Contractor) error {
	if err := c.source.Save(ctx, contractor); err != nil {
		return err
	}
	if err := c.cache.CacheContractor(ctx, contractor); err != nil {
		c.log.Warn("caching saved contractor", sl.Err(err))
	}
	return nil
}

func (c *Cached) BindTelegramID(ctx context.Context, contractorID, telegramID string) error {
	if err := c.source.BindTelegramID(ctx, contractorID, telegramID); err != nil {
		return err
	}
	if err := c.cache.DropCachedContractor(ctx, contractorID); err != nil {
		c.log.Warn("invalidating contractor cache", sl.Err(err))
	}
	return nil
}

func (c *Cached) UpdateField(ctx context.Context, contractorID, field, value string) error {
	if err := c.source.UpdateField(ctx, contractorID, field, value); err != nil {
		return err
	}
	if err := c.cache.DropCachedContractor(ctx, contractorID); err != nil {
		c.log.Warn("invalidating contractor cache", sl.Err(err))
	}
	return nil
}
