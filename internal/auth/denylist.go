package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryDenylist keeps revoked token ids in a bounded, expiring in-process cache.
// Entries live for the token TTL, which is never shorter than any token's remaining lifetime.
type MemoryDenylist struct {
	cache *expirable.LRU[string, struct{}]
}

func NewMemoryDenylist(capacity int, ttl time.Duration) *MemoryDenylist {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryDenylist{
		cache: expirable.NewLRU[string, struct{}](capacity, nil, ttl),
	}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return fmt.Errorf("%w: token id is required", ErrInvalidInput)
	}
	if !time.Now().Before(expiresAt) {
		return nil
	}
	d.cache.Add(tokenID, struct{}{})
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return d.cache.Contains(tokenID), nil
}

// RedisDenylist shares revocations between server instances through redis.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

// NewRedisDenylist connects to the redis server at url and verifies the connection.
func NewRedisDenylist(ctx context.Context, url string) (*RedisDenylist, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisDenylist{client: client, prefix: "revoked:"}, nil
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return fmt.Errorf("%w: token id is required", ErrInvalidInput)
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.Get(ctx, d.prefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

// Ping reports whether the redis server is reachable.
func (d *RedisDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *RedisDenylist) Close() error {
	return d.client.Close()
}

var (
	_ Denylist = (*MemoryDenylist)(nil)
	_ Denylist = (*RedisDenylist)(nil)
)
