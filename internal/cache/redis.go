// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
)

const redisBreakerName = "redis-cache"

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds every Redis round trip.
	Timeout time.Duration
}

// Redis is a shared result cache. Calls pass through a circuit breaker so
// an unreachable Redis degrades to cache misses instead of slowing every
// recommendation request.
type Redis struct {
	client  *redis.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	timeout time.Duration
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	metrics.SetCircuitBreakerState(redisBreakerName, 0)

	return &Redis{
		client:  client,
		cb:      newRedisBreaker(),
		timeout: timeout,
	}, nil
}

// newRedisBreaker opens after a 60% failure rate over at least 10 requests
// and probes again after 30 seconds.
func newRedisBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        redisBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		// A missing key is a normal miss, not a Redis failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
		},
	})
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name implements Backend.
func (r *Redis) Name() string { return BackendRedis }

// Get implements recommend.ResultCache. An open breaker reads as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]recommend.Recommendation, bool, error) {
	data, err := r.cb.Execute(func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.client.Get(callCtx, key).Bytes()
	})

	switch {
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheOperation(BackendRedis, "get", "miss")
		return nil, false, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCacheOperation(BackendRedis, "get", "rejected")
		return nil, false, nil
	case err != nil:
		metrics.RecordCacheOperation(BackendRedis, "get", "error")
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	recs, err := decode(data)
	if err != nil {
		metrics.RecordCacheOperation(BackendRedis, "get", "error")
		return nil, false, err
	}
	metrics.RecordCacheOperation(BackendRedis, "get", "hit")
	return recs, true, nil
}

// Set implements recommend.ResultCache.
func (r *Redis) Set(ctx context.Context, key string, recs []recommend.Recommendation, ttl time.Duration) error {
	data, err := encode(recs)
	if err != nil {
		return err
	}

	_, err = r.cb.Execute(func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return nil, r.client.Set(callCtx, key, data, ttl).Err()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCacheOperation(BackendRedis, "set", "rejected")
		return nil
	case err != nil:
		metrics.RecordCacheOperation(BackendRedis, "set", "error")
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	metrics.RecordCacheOperation(BackendRedis, "set", "ok")
	return nil
}

// Maintain pings Redis so breaker state reflects availability between
// requests. Expiry is handled server-side.
func (r *Redis) Maintain(ctx context.Context) error {
	_, err := r.cb.Execute(func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return nil, r.client.Ping(callCtx).Err()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}

// Close implements Backend.
func (r *Redis) Close() error {
	return r.client.Close()
}
