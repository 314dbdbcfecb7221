// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	jwtManager := newTestJWTManager(t, time.Hour)
	validToken, _, err := jwtManager.GenerateToken("alice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantUser   string
	}{
		{"required valid token", true, "Bearer " + validToken, http.StatusOK, "alice"},
		{"required lowercase scheme", true, "bearer " + validToken, http.StatusOK, "alice"},
		{"required missing header", true, "", http.StatusUnauthorized, ""},
		{"required wrong scheme", true, "Basic abc", http.StatusUnauthorized, ""},
		{"required bad token", true, "Bearer garbage", http.StatusUnauthorized, ""},
		{"optional missing header", false, "", http.StatusOK, ""},
		{"optional bad token", false, "Bearer garbage", http.StatusOK, ""},
		{"optional valid token", false, "Bearer " + validToken, http.StatusOK, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims, ok := ClaimsFromContext(r.Context()); ok {
					gotUser = claims.Username
				}
				w.WriteHeader(http.StatusOK)
			})

			m := NewMiddleware(jwtManager, tt.required, nil)
			req := httptest.NewRequest(http.MethodPost, "/train", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.RequireAuth(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("claims user = %q, want %q", gotUser, tt.wantUser)
			}
		})
	}
}

func TestRequireAuth_CustomDeny(t *testing.T) {
	t.Parallel()
	var denied error
	m := NewMiddleware(newTestJWTManager(t, time.Hour), true, func(w http.ResponseWriter, _ *http.Request, err error) {
		denied = err
		w.WriteHeader(http.StatusTeapot)
	})
	if !m.Required() {
		t.Error("Required() = false")
	}

	rec := httptest.NewRecorder()
	m.RequireAuth(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/train", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want custom deny status", rec.Code)
	}
	if denied != ErrMissingToken {
		t.Errorf("deny error = %v, want ErrMissingToken", denied)
	}
}
