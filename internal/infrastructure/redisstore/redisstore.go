package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "shophub:webhook:"

// New parses url, connects, and pings the server within five seconds.
func New(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// DedupStore claims webhook event ids with SET NX and an expiry.
type DedupStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDedupStore(rdb *redis.Client, ttl time.Duration) *DedupStore {
	return &DedupStore{rdb: rdb, ttl: ttl}
}

func (d *DedupStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedup claim: %w", err)
	}
	return ok, nil
}

func (d *DedupStore) Release(ctx context.Context, key string) error {
	if err := d.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis dedup release: %w", err)
	}
	return nil
}
