// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package auth provides local credential login and bearer-token checks.
//
// Credentials live in a JSON users file holding bcrypt hashes:
//
//	{"users": [{"username": "admin", "password_hash": "$2a$12$..."}]}
//
// A successful login issues an HS256 JWT from [JWTManager]. [Middleware]
// guards routes such as /train when authentication is required.
// [LoginLimiter] throttles repeated attempts per username.
package auth
