package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/store"
)

// Lookup reads the cached list for view and filter into dst. The ticket is
// the generation scoped key: filling with a ticket from before an
// invalidation writes under a key nobody reads.
func (s *Store) Lookup(ctx context.Context, view domain.View, filter any, dst any) (store.CacheTicket, bool) {
	hash, err := FilterHash(filter)
	if err != nil {
		s.log.Warn("cache key hashing failed", logger.String("view", string(view)), logger.Error(err))
		return "", false
	}

	gen, err := s.generation(ctx, view)
	if err != nil {
		s.log.Warn("cache generation read failed", logger.String("view", string(view)), logger.Error(err))
		return "", false
	}

	key := ListKey(s.tenant, view, gen, hash)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("cache read failed", logger.String("view", string(view)), logger.Error(err))
		}
		return store.CacheTicket(key), false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn("cache entry unreadable", logger.String("key", key), logger.Error(err))
		return store.CacheTicket(key), false
	}
	return store.CacheTicket(key), true
}

// Fill stores v under the ticket's key
func (s *Store) Fill(ctx context.Context, t store.CacheTicket, v any) {
	if t == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", logger.Error(err))
		return
	}
	if err := s.client.Set(ctx, string(t), data, s.ttl).Err(); err != nil {
		s.log.Warn("cache write failed", logger.String("key", string(t)), logger.Error(err))
	}
}

// Invalidate bumps the generation of every view, then removes the
// now unreachable entries
func (s *Store) Invalidate(ctx context.Context, views ...domain.View) error {
	pipe := s.client.TxPipeline()
	for _, v := range views {
		pipe.Incr(ctx, GenerationKey(s.tenant, v))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	for _, v := range views {
		if err := s.deleteMatching(ctx, ViewPattern(s.tenant, v)); err != nil {
			// Entries under a stale generation are never read again and
			// expire with their TTL.
			s.log.Debug("stale cache sweep failed", logger.String("view", string(v)), logger.Error(err))
		}
	}
	return nil
}

func (s *Store) generation(ctx context.Context, view domain.View) (int64, error) {
	gen, err := s.client.Get(ctx, GenerationKey(s.tenant, view)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *Store) deleteMatching(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}
