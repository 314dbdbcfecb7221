// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/animerec/internal/auth"
	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/models"
	"github.com/tomtom215/animerec/internal/recommend"
)

const (
	testSecret   = "test-secret-that-is-at-least-32-characters"
	testUser     = "admin"
	testPassword = "correct horse"
)

// envelope mirrors models.APIResponse with Data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// ratings: user 3 agrees with user 1 on items 1 and 2, user 2 does not.
// Only users 2 and 3 rated item 3, so user 1 is recommended item 3.
func testRatings() []recommend.Rating {
	return []recommend.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 1, ItemID: 2, Value: 4},
		{UserID: 2, ItemID: 1, Value: 1},
		{UserID: 2, ItemID: 2, Value: 5},
		{UserID: 2, ItemID: 3, Value: 2},
		{UserID: 3, ItemID: 1, Value: 5},
		{UserID: 3, ItemID: 2, Value: 4},
		{UserID: 3, ItemID: 3, Value: 4},
	}
}

func testItems() []recommend.Item {
	return []recommend.Item{
		{ID: 1, Title: "Alpha", Genre: "Action", Type: "TV"},
		{ID: 2, Title: "Beta", Genre: "Drama", Type: "Movie"},
		{ID: 3, Title: "Gamma", Genre: "Comedy", Type: "OVA"},
	}
}

// engineTrainer trains the engine from fixed data, or fails with err.
type engineTrainer struct {
	engine *recommend.Engine
	mu     sync.Mutex
	err    error
}

func (t *engineTrainer) TrainNow(ctx context.Context) (recommend.TrainingSummary, error) {
	t.mu.Lock()
	err := t.err
	t.mu.Unlock()
	if err != nil {
		return recommend.TrainingSummary{}, err
	}
	return t.engine.TrainWith(ctx, testRatings(), testItems())
}

type fakeData struct {
	loaded  bool
	pingErr error
}

func (f *fakeData) DataLoaded() bool { return f.loaded }

func (f *fakeData) Ping(context.Context) error { return f.pingErr }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			TrainTimeout:   10 * time.Second,
		},
		Recommend: config.RecommendConfig{
			MinRatings:   1,
			DefaultN:     10,
			MaxN:         50,
			TestDefaultN: 5,
			MaxTestUsers: 3,
		},
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
			LoginAttempts:     3,
			LoginWindow:       time.Minute,
		},
	}
}

type testServer struct {
	handler http.Handler
	engine  *recommend.Engine
	trainer *engineTrainer
	data    *fakeData
	jwt     *auth.JWTManager
}

type serverOption func(*testServer, *config.Config, *Dependencies)

func withAuthRequired() serverOption {
	return func(_ *testServer, cfg *config.Config, _ *Dependencies) {
		cfg.Security.AuthRequired = true
	}
}

func withRateLimit(reqs int) serverOption {
	return func(_ *testServer, cfg *config.Config, _ *Dependencies) {
		cfg.Security.RateLimitDisabled = false
		cfg.Security.RateLimitReqs = reqs
		cfg.Security.RateLimitWindow = time.Minute
	}
}

func withUsersFile(path string) serverOption {
	return func(_ *testServer, _ *config.Config, deps *Dependencies) {
		deps.Users = auth.NewUserStore(path)
	}
}

// newTestServer builds the full router around an untrained engine.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := testConfig()

	engineCfg := recommend.DefaultConfig()
	engineCfg.MinRatings = cfg.Recommend.MinRatings
	engineCfg.Workers = 2
	engine, err := recommend.NewEngine(engineCfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	ts := &testServer{
		engine:  engine,
		trainer: &engineTrainer{engine: engine},
		data:    &fakeData{loaded: true},
	}

	usersPath := filepath.Join(t.TempDir(), "users.json")
	writeUsersFile(t, usersPath, testUser, testPassword)

	deps := Dependencies{
		Engine:       engine,
		Trainer:      ts.trainer,
		Data:         ts.data,
		Users:        auth.NewUserStore(usersPath),
		CacheBackend: "memory",
	}
	for _, opt := range opts {
		opt(ts, cfg, &deps)
	}

	ts.jwt, err = auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	deps.Tokens = ts.jwt
	deps.Limiter = auth.NewLoginLimiter(cfg.Security.LoginAttempts, cfg.Security.LoginWindow)

	handler := NewHandler(deps, cfg)
	authMW := auth.NewMiddleware(ts.jwt, cfg.Security.AuthRequired, DenyFunc())
	ts.handler = NewRouter(handler, NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&cfg.Security)), authMW).Setup()
	return ts
}

func (ts *testServer) train(t *testing.T) {
	t.Helper()
	if _, err := ts.engine.TrainWith(context.Background(), testRatings(), testItems()); err != nil {
		t.Fatalf("TrainWith() error = %v", err)
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not an envelope: %v: %s", err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v: %s", err, env.Data)
	}
}

func writeUsersFile(t *testing.T, path, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"users": []map[string]string{{"username": username, "password_hash": string(hash)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	if env.Status != models.StatusError {
		t.Errorf("envelope status = %q, want %q", env.Status, models.StatusError)
	}
	if env.Error == nil {
		t.Fatalf("envelope has no error: %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

var errBoom = errors.New("boom")
