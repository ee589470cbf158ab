// Package redis provides Redis-based adapters for the review ingestion pipeline.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/target/review-ingest/internal/core"
)

const defaultLockPrefix = "review-ingest:lock:"

// releaseScript deletes the lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock TTL only while it still carries the caller's token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RunLock is a single-holder lock keyed by run name.
type RunLock struct {
	client redis.UniversalClient
	prefix string
}

var _ core.RunLock = (*RunLock)(nil)

// NewRunLock creates a RunLock using the default key prefix.
func NewRunLock(client redis.UniversalClient) *RunLock {
	return NewRunLockWithPrefix(client, defaultLockPrefix)
}

// NewRunLockWithPrefix creates a RunLock with a custom key prefix.
func NewRunLockWithPrefix(client redis.UniversalClient, prefix string) *RunLock {
	return &RunLock{client: client, prefix: prefix}
}

// Acquire takes the lock for ttl. ok is false when someone else holds it.
func (l *RunLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if name == "" {
		return "", false, errors.New("lock name cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	token := uuid.NewString()
	// SET NX with a TTL in one command; SETNX + EXPIRE could leak a lock on crash.
	status, err := l.client.SetArgs(ctx, l.prefix+name, token, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis SET NX: %w", err)
	}
	return token, status == "OK", nil
}

// Release frees the lock if token still owns it.
func (l *RunLock) Release(ctx context.Context, name, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + name}, token).Err(); err != nil &&
		!errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release lock: %w", err)
	}
	return nil
}

// Refresh extends the lock; false means the lock expired or changed hands.
func (l *RunLock) Refresh(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client, []string{l.prefix + name}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis refresh lock: %w", err)
	}
	return n == 1, nil
}
