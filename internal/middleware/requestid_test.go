// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		incoming   string
		wantReused bool
	}{
		{"generates new id", "", false},
		{"preserves upstream id", "proxy-abc.123", true},
		{"rejects id with spaces", "bad id", false},
		{"rejects overlong id", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			header := rec.Header().Get(RequestIDHeader)
			if header != captured {
				t.Errorf("header %q != context %q", header, captured)
			}
			if tt.wantReused {
				if header != tt.incoming {
					t.Errorf("expected upstream id %q, got %q", tt.incoming, header)
				}
				return
			}
			if _, err := uuid.Parse(header); err != nil {
				t.Errorf("expected generated UUID, got %q", header)
			}
		})
	}
}
