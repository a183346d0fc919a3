package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Storage keys for persisted local state.
const (
	SessionKeyUser     = "user"
	SessionKeyEmployee = "employee"
	SessionKeyToken    = "token"
)

// Profile is the minimal account snapshot persisted per role.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// SessionStore persists session state as a JSON object in a single
// file, keyed by the storage keys above. It stands in for the device's
// local storage: read on start to decide the initial route, cleared on
// a 401.
type SessionStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewSessionStore loads the session file at path, creating an empty
// store when the file does not exist yet.
func NewSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return s, nil
}

// Set stores a value under key and persists the file.
func (s *SessionStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal session value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw
	return s.flush()
}

// Get reads the value stored under key into out. Returns false when the
// key is absent.
func (s *SessionStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to parse session value: %w", err)
	}
	return true, nil
}

// Profile returns the persisted profile for a role ("user" or
// "employee"), or nil when none is stored.
func (s *SessionStore) Profile(role string) (*Profile, error) {
	var p Profile
	ok, err := s.Get(role, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Token returns the bearer token for a role.
func (s *SessionStore) Token(role string) (string, error) {
	p, err := s.Profile(role)
	if err != nil {
		return "", err
	}
	if p == nil || p.Token == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSession, role)
	}
	return p.Token, nil
}

// Clear removes the persisted state for key and persists the file.
// Clearing an absent key is a no-op.
func (s *SessionStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// flush writes the file. Callers hold the lock.
func (s *SessionStore) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
