package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Tokens is the credential pair a client holds between requests
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists tokens across process restarts
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func (m *MemoryTokenStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryTokenStore) Save(t Tokens) error {
	m.mu.Lock()
	m.tokens = t
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error { return m.Save(Tokens{}) }

// FileTokenStore keeps tokens in a JSON file readable only by the owner
type FileTokenStore struct {
	Path string
}

// Load returns empty tokens when the file does not exist yet
func (f FileTokenStore) Load() (Tokens, error) {
	var t Tokens
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	} else if err != nil {
		return t, fmt.Errorf("failed to read token file: %w", err)
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode token file: %w", err)
	}
	return t, nil
}

func (f FileTokenStore) Save(t Tokens) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Session is the signed-in state of one client. It is created with Open,
// which restores persisted tokens, and ended with Client.Logout.
type Session struct {
	mu     sync.RWMutex
	store  TokenStore
	tokens Tokens
}

func Open(store TokenStore) (*Session, error) {
	tokens, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{store: store, tokens: tokens}, nil
}

func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *Session) LoggedIn() bool {
	return s.Tokens().AccessToken != ""
}

// Set replaces the tokens and persists them
func (s *Session) Set(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	return s.store.Save(t)
}

// Clear forgets the tokens in memory and in storage
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	return s.store.Clear()
}
