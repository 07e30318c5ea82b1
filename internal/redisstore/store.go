// Package redisstore implements the flow session store on Redis. Sessions
// live as JSON values under one key per user; an index sorted set keyed by
// last-update time drives the idle sweep.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"IzdatBot/bot/flow"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "flow:session:"
	indexKey         = "flow:sessions:index"
)

// Store is a versioned session store backed by Redis. Compare-and-set runs
// under WATCH so concurrent writers fall out with flow.ErrVersionConflict
// instead of clobbering each other.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a store. ttl is the hard key expiry, a backstop behind the
// janitor's sweep; zero disables it.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func (s *Store) Get(ctx context.Context, userID string) (*flow.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, flow.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess flow.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *Store) Put(ctx context.Context, sess *flow.Session, expectedVersion int64) error {
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now()
	}
	key := sessionKey(sess.UserID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if expectedVersion != 0 {
				return flow.ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			if expectedVersion == 0 {
				return flow.ErrVersionConflict
			}
			var stored flow.Session
			if err := json.Unmarshal(current, &stored); err != nil {
				return fmt.Errorf("unmarshal stored session: %w", err)
			}
			if stored.Version != expectedVersion {
				return flow.ErrVersionConflict
			}
		}

		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, indexKey, redis.Z{
				Score:  float64(sess.UpdatedAt.Unix()),
				Member: sess.UserID,
			})
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return flow.ErrVersionConflict
	}
	return err
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(userID))
		pipe.ZRem(ctx, indexKey, userID)
		return nil
	})
	return err
}

// ExpireOlderThan removes sessions idle past the cutoff. Each candidate is
// re-checked under WATCH, so a session touched mid-sweep survives.
func (s *Store) ExpireOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	candidates, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zrangebyscore: %w", err)
	}

	removed := 0
	for _, userID := range candidates {
		key := sessionKey(userID)
		txf := func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				// Session already gone, drop the index entry.
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.ZRem(ctx, indexKey, userID)
					return nil
				})
				return err
			}
			if err != nil {
				return err
			}

			var sess flow.Session
			if err := json.Unmarshal(data, &sess); err != nil {
				return err
			}
			if !sess.UpdatedAt.Before(cutoff) {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, indexKey, userID)
				return nil
			})
			if err == nil {
				removed++
			}
			return err
		}

		if err := s.client.Watch(ctx, txf, key); err != nil {
			if errors.Is(err, redis.TxFailedErr) {
				continue
			}
			return removed, err
		}
	}
	return removed, nil
}
