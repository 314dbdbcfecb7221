// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package storage persists trained recommendation models so a restarted
// server can serve immediately without retraining.
//
// # Storage Format
//
// Each training run is written as one file:
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata)
//	  - CompressedData (gzip-compressed gob-encoded recommend.ModelState)
//
// Files are written to a temporary name and renamed into place. A SHA-256
// checksum of the uncompressed payload is verified on load.
//
// # Usage Example
//
//	store, err := storage.NewStore("/data/models")
//	if err != nil {
//	    return err
//	}
//	models := storage.NewRecommendStore(store, "anime_model", 5)
//	engine.SetModelStore(models)
//
//	// At startup
//	loaded, err := engine.LoadLatest(ctx)
package storage
