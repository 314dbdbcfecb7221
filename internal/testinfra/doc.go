// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package testinfra provides container helpers for integration tests.
//
// Everything here is behind the integration build tag and uses
// testcontainers-go to start real services:
//
//	func TestRedisCache(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//
//	    backend, err := cache.NewRedis(ctx, cache.RedisOptions{Addr: redis.Addr})
//	    // ...
//	}
//
// Run with:
//
//	go test -tags integration ./...
package testinfra
