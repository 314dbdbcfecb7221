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

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
)

// gcDiscardRatio is the value-log rewrite threshold passed to RunValueLogGC.
const gcDiscardRatio = 0.5

// Badger is an embedded, disk-backed result cache. Entries expire through
// Badger's native TTL, so results survive restarts until they age out or
// the model ID in their key changes.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a Badger cache at path. An empty path opens an
// in-memory instance.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &Badger{db: db}, nil
}

// Name implements Backend.
func (b *Badger) Name() string { return BackendBadger }

// Get implements recommend.ResultCache.
func (b *Badger) Get(_ context.Context, key string) ([]recommend.Recommendation, bool, error) {
	var recs []recommend.Recommendation

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decode(val)
			if err != nil {
				return err
			}
			recs = decoded
			return nil
		})
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		metrics.RecordCacheOperation(BackendBadger, "get", "miss")
		return nil, false, nil
	case err != nil:
		metrics.RecordCacheOperation(BackendBadger, "get", "error")
		return nil, false, fmt.Errorf("badger get %s: %w", key, err)
	}

	metrics.RecordCacheOperation(BackendBadger, "get", "hit")
	return recs, true, nil
}

// Set implements recommend.ResultCache.
func (b *Badger) Set(_ context.Context, key string, recs []recommend.Recommendation, ttl time.Duration) error {
	data, err := encode(recs)
	if err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		metrics.RecordCacheOperation(BackendBadger, "set", "error")
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	metrics.RecordCacheOperation(BackendBadger, "set", "ok")
	return nil
}

// Maintain runs value-log garbage collection until nothing is rewritten.
func (b *Badger) Maintain(ctx context.Context) error {
	if b.db.Opts().InMemory {
		return nil
	}
	for ctx.Err() == nil {
		err := b.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
	return ctx.Err()
}

// Close implements Backend.
func (b *Badger) Close() error {
	return b.db.Close()
}
