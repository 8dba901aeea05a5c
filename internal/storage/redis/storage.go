package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches usage counters so the quota gate can read cumulative usage
// without hitting postgres on every generation request. The postgres usage
// table stays authoritative; counters here are advisory.
type Store struct {
	client *redis.Client
	wt     time.Duration
	rt     time.Duration
}

func NewStore(c *redis.Client, wt time.Duration, rt time.Duration) *Store {
	return &Store{
		client: c,
		wt:     wt,
		rt:     rt,
	}
}

func counterKey(userId string, usageType string) string {
	return fmt.Sprintf("usage-%s-%s", userId, usageType)
}

func (s *Store) SetCounter(userId string, usageType string, value int64) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	return s.client.Set(ctxTimeout, counterKey(userId, usageType), value, 0).Err()
}

func (s *Store) DeleteCounter(userId string, usageType string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	return s.client.Del(ctxTimeout, counterKey(userId, usageType)).Err()
}

// GetCounter returns the cached counter value. A missing key is reported
// via found=false rather than an error so callers can fall back to the
// authoritative store.
func (s *Store) GetCounter(userId string, usageType string) (int64, bool, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	val, err := s.client.Get(ctxTimeout, counterKey(userId, usageType)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}

		return 0, false, err
	}

	return val, true, nil
}
