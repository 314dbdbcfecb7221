// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/animerec/internal/logging"
)

var (
	// ErrUsersFileMissing means the users file does not exist. Logins
	// cannot be checked at all, so callers treat it as a server error.
	ErrUsersFileMissing = errors.New("users file not found")

	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// BcryptCost is the cost used by HashPassword.
const BcryptCost = 12

// dummyHash is compared against when the username is unknown so both
// failure paths cost one bcrypt comparison at the production cost.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("animerec-dummy-password"), BcryptCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// User is one entry of the users file.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type usersFile struct {
	Users []User `json:"users"`
}

// UserStore checks credentials against a JSON users file. The file is
// re-read when its modification time changes.
type UserStore struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	hashes  map[string][]byte
}

// NewUserStore creates a store for the users file at path. The file is
// not read until the first Authenticate call.
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Path returns the users file path.
func (s *UserStore) Path() string {
	return s.path
}

// Authenticate returns nil when password matches the bcrypt hash stored
// for username.
func (s *UserStore) Authenticate(username, password string) error {
	hashes, err := s.load()
	if err != nil {
		return err
	}

	hash, ok := hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *UserStore) load() (map[string][]byte, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUsersFileMissing, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat users file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hashes != nil && info.ModTime().Equal(s.modTime) {
		return s.hashes, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var file usersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", s.path, err)
	}

	hashes := make(map[string][]byte, len(file.Users))
	for _, u := range file.Users {
		if u.Username == "" || u.PasswordHash == "" {
			logging.Warn().Str("path", s.path).Msg("Skipping users file entry without username or password_hash")
			continue
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			logging.Warn().Str("username", u.Username).Err(err).Msg("Skipping user with invalid bcrypt hash")
			continue
		}
		hashes[u.Username] = []byte(u.PasswordHash)
	}

	s.hashes = hashes
	s.modTime = info.ModTime()
	logging.Info().Str("path", s.path).Int("users", len(hashes)).Msg("Users file loaded")
	return hashes, nil
}

// HashPassword returns a bcrypt hash suitable for the users file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
