// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package services provides suture.Service wrappers for the components the
// supervisor tree runs: the HTTP server, the training loop, and periodic
// maintenance.
package services
