// Package prefs persists the client-side state that survives reloads:
// preferred theme, preferred locale, cached auth token and identity label.
// Values are simple key-value pairs overwritten wholesale on change.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known preference keys.
const (
	KeyTheme    = "theme"
	KeyLocale   = "locale"
	KeyToken    = "token"
	KeyIdentity = "identity"
)

// Store is a file-backed key-value store.
type Store struct {
	mutex    sync.RWMutex
	values   map[string]string
	filePath string
}

// NewStore opens (or creates) a store under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		values:   make(map[string]string),
		filePath: filepath.Join(dataDir, "prefs.json"),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.values)
}

func (s *Store) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.values)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	// Write to a temporary file first, then rename for an atomic swap.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Get returns the stored value for key, or "" when unset.
func (s *Store) Get(key string) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.values[key]
}

// Set stores value under key and persists immediately.
func (s *Store) Set(key, value string) error {
	s.mutex.Lock()
	s.values[key] = value
	s.mutex.Unlock()
	return s.save()
}

// Delete removes key and persists immediately.
func (s *Store) Delete(key string) error {
	s.mutex.Lock()
	delete(s.values, key)
	s.mutex.Unlock()
	return s.save()
}
