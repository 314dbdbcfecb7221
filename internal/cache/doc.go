// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package cache provides the recommendation result cache backends.

Three backends implement [Backend], selected by the cache.backend setting:

  - memory: an in-process [LRU] bounded by cache.max_entries
  - badger: an embedded BadgerDB store with native TTL; results survive restarts
  - redis: a shared Redis instance behind a circuit breaker, for several
    replicas serving the same model

Keys embed the model ID, so retraining invalidates every cached result
without an explicit flush. Entries that outlive their model simply expire.

Backends never return cached slices that alias caller memory. The Redis
backend reports an open circuit as a miss, so a Redis outage degrades to
recomputing recommendations.

[LRU] is also used directly as a bounded map with TTL, for example to
cap the per-username login limiters in the auth package.
*/
package cache
