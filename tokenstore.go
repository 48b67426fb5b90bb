package cosynight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore persists the session token. LoadToken returns ErrNoToken
// (possibly wrapped) when nothing is stored.
type TokenStore interface {
	LoadToken(ctx context.Context) (*Token, error)
	SaveToken(ctx context.Context, token *Token) error
}

// TokenDeleter is implemented by stores that can remove the stored token.
// The client uses it when a refresh is rejected and on Logout.
type TokenDeleter interface {
	Delete(ctx context.Context) error
}

// FileTokenStore stores the token in a JSON file
type FileTokenStore struct {
	filepath string
	mu       sync.RWMutex
}

// NewFileTokenStore creates a new FileTokenStore
func NewFileTokenStore(filepath string) *FileTokenStore {
	return &FileTokenStore{
		filepath: filepath,
	}
}

// Path returns the token file path.
func (f *FileTokenStore) Path() string {
	return f.filepath
}

// SaveToken replaces the token file. The write goes to a temporary file
// that is renamed over the old one, so readers see the old or the new
// token, never a mix.
func (f *FileTokenStore) SaveToken(ctx context.Context, token *Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	// Ensure the directory exists
	dir := filepath.Dir(f.filepath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tmpFile := f.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmpFile, f.filepath); err != nil {
		// Clean up temp file on failure
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save token file: %w", err)
	}

	return nil
}

// LoadToken loads the token from the file
func (f *FileTokenStore) LoadToken(ctx context.Context) (*Token, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, f.filepath)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// Delete removes the token file
func (f *FileTokenStore) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Exists checks if the token file exists
func (f *FileTokenStore) Exists() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, err := os.Stat(f.filepath)
	return err == nil
}

// MemoryTokenStore stores the token in memory (useful for testing)
type MemoryTokenStore struct {
	token *Token
	saves int
	mu    sync.RWMutex
}

// NewMemoryTokenStore creates a new in-memory token store, optionally
// seeded with a token.
func NewMemoryTokenStore(token *Token) *MemoryTokenStore {
	m := &MemoryTokenStore{}
	if token != nil {
		t := *token
		m.token = &t
	}
	return m
}

// SaveToken saves a copy of token.
func (m *MemoryTokenStore) SaveToken(ctx context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *token
	m.token = &t
	m.saves++
	return nil
}

// LoadToken returns a copy of the stored token.
func (m *MemoryTokenStore) LoadToken(ctx context.Context) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == nil {
		return nil, ErrNoToken
	}
	t := *m.token
	return &t, nil
}

// Delete removes the stored token.
func (m *MemoryTokenStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// Saves returns how many times SaveToken succeeded.
func (m *MemoryTokenStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
