// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package models defines the request and response structures of the HTTP API.

Every endpoint except /metrics answers with an [APIResponse] envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-05T12:00:00Z", "query_time_ms": 3}
	}

Failures carry an [APIError] instead of data:

	{
	  "status": "error",
	  "data": null,
	  "metadata": {"timestamp": "2026-01-05T12:00:00Z"},
	  "error": {"code": "USER_NOT_FOUND", "message": "user 42 not found in training data"}
	}

Recommendation items themselves are recommend.Recommendation values and are
not redefined here.
*/
package models
