// Package session gates the console behind a shared secret and remembers a
// successful login between runs.
package session

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrBadSecret is returned by Login when the entered secret does not match.
var ErrBadSecret = errors.New("secret does not match")

type record struct {
	Active   bool      `json:"active"`
	LoggedIn time.Time `json:"loggedIn"`
}

// Session manages the persisted login flag.
type Session struct {
	path   string
	secret string

	mu  sync.Mutex
	rec record
}

// Open loads the session file at path if present. A missing file means
// logged out.
func Open(path, secret string) (*Session, error) {
	s := &Session{path: path, secret: secret}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file %s: %w", path, err)
	}

	if err := json.Unmarshal(b, &s.rec); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	return s, nil
}

// Active reports whether a login is in effect.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Active
}

// Since returns when the current login happened.
func (s *Session) Since() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.LoggedIn
}

// Login checks entered against the configured secret and persists the
// session on a match.
func (s *Session) Login(entered string) error {
	if s.secret == "" {
		return errors.New("no secret configured")
	}
	a := sha256.Sum256([]byte(entered))
	b := sha256.Sum256([]byte(s.secret))
	if subtle.ConstantTimeCompare(a[:], b[:]) != 1 {
		return ErrBadSecret
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = record{Active: true, LoggedIn: time.Now().UTC()}
	return s.persist()
}

// Logout clears the session and removes the file.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = record{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Session) persist() error {
	payload, err := json.Marshal(s.rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temporary session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temporary session file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temporary session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic replace session file: %w", err)
	}

	return nil
}
