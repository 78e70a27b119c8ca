// Package session holds the referee device binding: which court a device
// scores for. A binding is a capability equal to knowledge of the court PIN;
// it has no expiry and no server-side record.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrNoBinding = errors.New("no court binding")

// Binding привязывает устройство судьи к корту.
type Binding struct {
	CourtID string    `json:"courtId"`
	Pin     string    `json:"pin"`
	Name    string    `json:"name"`
	BoundAt time.Time `json:"boundAt"`
	// Token is the signed form handed out by the server; empty for bindings
	// created in-process.
	Token string `json:"token,omitempty"`
}

// Store persists at most one binding.
type Store interface {
	Save(b Binding) error
	Load() (Binding, error)
	Clear() error
}

type MemoryStore struct {
	mu      sync.Mutex
	binding *Binding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(b Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = &b
	return nil
}

func (s *MemoryStore) Load() (Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binding == nil {
		return Binding{}, ErrNoBinding
	}
	return *s.binding, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = nil
	return nil
}

// FileStore keeps the binding in a local JSON file (referee CLI).
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is ~/.beach-tennis/court-auth.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".beach-tennis", "court-auth.json"), nil
}

func (s *FileStore) Save(b Binding) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode binding: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write binding: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load() (Binding, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Binding{}, ErrNoBinding
		}
		return Binding{}, fmt.Errorf("read binding: %w", err)
	}
	var b Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return Binding{}, fmt.Errorf("decode binding: %w", err)
	}
	return b, nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove binding: %w", err)
	}
	return nil
}
