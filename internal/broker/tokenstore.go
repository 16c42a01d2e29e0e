package broker

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the refresh token, the only durable artifact of a
// session. Saves are full overwrites so the latest token always wins.
type TokenStore struct {
	Path string
}

// Load returns the saved refresh token. A missing, unreadable, or empty file
// reads as "no token": the caller falls back to interactive authorization.
func (s TokenStore) Load() string {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save overwrites the token file with the given refresh token.
func (s TokenStore) Save(token string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}
