// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/animerec/internal/models"
	"github.com/tomtom215/animerec/internal/recommend"
)

func TestRecommend(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.train(t)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantErr   string
		wantCount int
		wantFirst int
	}{
		{name: "collaborative result", target: "/recommend/1?n=1", wantCode: http.StatusOK, wantCount: 1, wantFirst: 3},
		{name: "default n", target: "/recommend/1", wantCode: http.StatusOK, wantCount: 1, wantFirst: 3},
		{name: "non-integer n uses default", target: "/recommend/1?n=lots", wantCode: http.StatusOK, wantCount: 1, wantFirst: 3},
		{name: "zero n", target: "/recommend/1?n=0", wantCode: http.StatusOK, wantCount: 0},
		{name: "negative n", target: "/recommend/1?n=-3", wantCode: http.StatusOK, wantCount: 0},
		{name: "unknown user", target: "/recommend/999", wantCode: http.StatusNotFound, wantErr: models.ErrCodeUserNotFound},
		{name: "unknown user with zero n", target: "/recommend/999?n=0", wantCode: http.StatusNotFound, wantErr: models.ErrCodeUserNotFound},
		{name: "invalid user id", target: "/recommend/abc", wantCode: http.StatusBadRequest, wantErr: models.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodGet, tt.target, nil, nil)
			if tt.wantErr != "" {
				assertError(t, rec, env, tt.wantCode, tt.wantErr)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}

			var data models.RecommendResponse
			decodeData(t, env, &data)
			if data.Count != tt.wantCount || len(data.Recommendations) != tt.wantCount {
				t.Fatalf("count = %d (%d recs), want %d", data.Count, len(data.Recommendations), tt.wantCount)
			}
			if data.Recommendations == nil {
				t.Error("recommendations encoded as null")
			}
			if tt.wantCount > 0 && data.Recommendations[0].ItemID != tt.wantFirst {
				t.Errorf("first item = %d, want %d", data.Recommendations[0].ItemID, tt.wantFirst)
			}
			if data.UserID != 1 {
				t.Errorf("user_id = %d, want 1", data.UserID)
			}
		})
	}
}

func TestRecommend_ScoreAndMetadata(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.train(t)

	_, env := ts.do(t, http.MethodGet, "/recommend/1?n=5", nil, nil)
	var data models.RecommendResponse
	decodeData(t, env, &data)

	want := recommend.Recommendation{ItemID: 3, Title: "Gamma", Genre: "Comedy", Type: "OVA", Score: 3.7564}
	if len(data.Recommendations) != 1 || data.Recommendations[0] != want {
		t.Errorf("recommendations = %+v, want [%+v]", data.Recommendations, want)
	}
	if data.Fallback {
		t.Error("fallback = true, want false")
	}
	if data.ModelVersion != 1 {
		t.Errorf("model_version = %d, want 1", data.ModelVersion)
	}
}

func TestRecommend_CachedSecondCall(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.train(t)

	_, first := ts.do(t, http.MethodGet, "/recommend/1?n=1", nil, nil)
	_, second := ts.do(t, http.MethodGet, "/recommend/1?n=1", nil, nil)

	if first.Metadata.Cached {
		t.Error("first call reported cached")
	}
	if !second.Metadata.Cached {
		t.Error("second call not reported cached")
	}
	var a, b models.RecommendResponse
	decodeData(t, first, &a)
	decodeData(t, second, &b)
	if len(a.Recommendations) != 1 || len(b.Recommendations) != 1 || a.Recommendations[0] != b.Recommendations[0] {
		t.Errorf("cached result %+v differs from %+v", b.Recommendations, a.Recommendations)
	}
}

func TestRecommend_NotTrained(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec, env := ts.do(t, http.MethodGet, "/recommend/1", nil, nil)
	assertError(t, rec, env, http.StatusBadRequest, models.ErrCodeModelNotTrained)
}

func TestRecommend_CapsN(t *testing.T) {
	t.Parallel()

	h := NewHandler(Dependencies{}, testConfig())
	tests := []struct {
		in, want int
	}{
		{10, 10},
		{50, 50},
		{51, 50},
		{1000, 50},
		{0, 0},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := h.clampN(tt.in); got != tt.want {
			t.Errorf("clampN(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTest(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.train(t)

	t.Run("mixed results", func(t *testing.T) {
		rec, env := ts.do(t, http.MethodPost, "/test", []byte(`{"test_users":[1,999],"n_recommendations":1}`), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var data models.TestResponse
		decodeData(t, env, &data)

		if len(data.TestResults) != 2 {
			t.Fatalf("got %d results, want 2", len(data.TestResults))
		}
		ok, bad := data.TestResults[0], data.TestResults[1]
		if ok.Status != models.StatusSuccess || len(ok.Recommendations) != 1 || ok.Recommendations[0].ItemID != 3 {
			t.Errorf("user 1 result = %+v", ok)
		}
		if bad.Status != models.StatusError || bad.Message == "" || bad.Recommendations == nil || len(bad.Recommendations) != 0 {
			t.Errorf("user 999 result = %+v", bad)
		}
		want := models.TestMetrics{TotalUsersTested: 2, SuccessfulRecommendations: 1, SuccessRate: 0.5}
		if data.Metrics != want {
			t.Errorf("metrics = %+v, want %+v", data.Metrics, want)
		}
	})

	t.Run("default n", func(t *testing.T) {
		rec, env := ts.do(t, http.MethodPost, "/test", []byte(`{"test_users":[2]}`), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var data models.TestResponse
		decodeData(t, env, &data)
		if data.Metrics.SuccessRate != 1 {
			t.Errorf("success_rate = %v, want 1", data.Metrics.SuccessRate)
		}
	})

	badRequests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"test_users":`},
		{"missing users", `{"n_recommendations":3}`},
		{"empty users", `{"test_users":[]}`},
		{"negative n", `{"test_users":[1],"n_recommendations":-1}`},
		{"too many users", `{"test_users":[1,2,3,4]}`},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/test", []byte(tt.body), nil)
			assertError(t, rec, env, http.StatusBadRequest, models.ErrCodeValidation)
		})
	}
}

func TestTest_NotTrained(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec, env := ts.do(t, http.MethodPost, "/test", []byte(`{"test_users":[1]}`), nil)
	assertError(t, rec, env, http.StatusBadRequest, models.ErrCodeModelNotTrained)
}
