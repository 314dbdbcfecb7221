// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func writeUsersFile(t *testing.T, path string, users map[string]string) {
	t.Helper()
	content := `{"users": [`
	first := true
	for name, password := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		if !first {
			content += ","
		}
		first = false
		content += `{"username": "` + name + `", "password_hash": "` + string(hash) + `"}`
	}
	content += "]}"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestUserStore_Authenticate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	writeUsersFile(t, path, map[string]string{"admin": "correct horse", "viewer": "battery staple"})

	store := NewUserStore(path)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid admin", "admin", "correct horse", nil},
		{"valid viewer", "viewer", "battery staple", nil},
		{"wrong password", "admin", "battery staple", ErrInvalidCredentials},
		{"unknown user", "mallory", "correct horse", ErrInvalidCredentials},
		{"empty password", "admin", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Authenticate(tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserStore_MissingFile(t *testing.T) {
	t.Parallel()
	store := NewUserStore(filepath.Join(t.TempDir(), "absent.json"))

	err := store.Authenticate("admin", "x")
	if !errors.Is(err, ErrUsersFileMissing) {
		t.Errorf("Authenticate() error = %v, want ErrUsersFileMissing", err)
	}
}

func TestUserStore_MalformedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := NewUserStore(path).Authenticate("admin", "x")
	if err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUsersFileMissing) {
		t.Errorf("Authenticate() error = %v, want parse error", err)
	}
}

func TestUserStore_SkipsInvalidEntries(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	content := `{"users": [{"username": "plain", "password_hash": "not-a-bcrypt-hash"}, {"username": "", "password_hash": "x"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	err := NewUserStore(path).Authenticate("plain", "not-a-bcrypt-hash")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserStore_ReloadsOnChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "users.json")
	writeUsersFile(t, path, map[string]string{"admin": "old"})

	store := NewUserStore(path)
	if err := store.Authenticate("admin", "old"); err != nil {
		t.Fatalf("Authenticate(old) error = %v", err)
	}

	writeUsersFile(t, path, map[string]string{"admin": "new"})
	// Force a distinct modification time on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if err := store.Authenticate("admin", "new"); err != nil {
		t.Errorf("Authenticate(new) after reload error = %v", err)
	}
	if err := store.Authenticate("admin", "old"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(old) after reload error = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashPassword(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost != BcryptCost {
		t.Errorf("cost = %d, want %d", cost, BcryptCost)
	}
}
