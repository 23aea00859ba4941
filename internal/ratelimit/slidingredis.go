// Package ratelimit implements the sliding-window limiter that guards the
// login and register endpoints against credential stuffing.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter counts events per key in a Redis sorted set scored by nanosecond
// timestamps, so the window slides instead of resetting at fixed edges.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one event for key and reports whether it fits the window.
// A nil client or non-positive limit disables limiting entirely.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	reset = now.Add(window)
	cutoff := float64(now.Add(-window).UnixNano())
	bucket := l.Prefix + key
	// members carry a uuid suffix so same-nanosecond events stay distinct
	member := fmt.Sprintf("%s:%s", key, uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, bucket, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	current := int(countCmd.Val())
	remaining = max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= max, remaining, reset, nil
}
