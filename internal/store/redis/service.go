// Package redis holds the Redis backed list-view cache. The cache is an
// optimization only: every failure degrades to a store read.
package redis

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/logger"
)

// DefaultListTTL matches the original client stale time
const DefaultListTTL = 30 * time.Second

// Store handles Redis operations for cached list views
type Store struct {
	client *redis.Client
	tenant string
	ttl    time.Duration
	log    logger.Logger
}

// NewStore creates a new Redis list cache scoped to tenant
func NewStore(client *redis.Client, tenant string, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	return &Store{
		client: client,
		tenant: tenant,
		ttl:    ttl,
		log:    log,
	}
}
