package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey is the namespace the persisted record is kept under.
const StorageKey = "auth-storage"

// PersistedState is the subset of the TokenStore that survives a restart.
// Access and two-factor tokens are deliberately absent.
type PersistedState struct {
	RefreshToken string `json:"refreshToken"`
	Role         Role   `json:"role"`
}

// IsZero reports whether there is nothing worth keeping.
func (p PersistedState) IsZero() bool {
	return p.RefreshToken == "" && (p.Role == "" || p.Role == RoleUser)
}

// Persister stores the durable record. Load must return a zero PersistedState
// and a nil error when nothing has been stored yet.
type Persister interface {
	Load(ctx context.Context) (PersistedState, error)
	Save(ctx context.Context, state PersistedState) error
	Clear(ctx context.Context) error
}

// ============================================================================
// MemoryPersister
// ============================================================================

// MemoryPersister keeps the record in process memory. Useful for tests and
// for sessions that should not outlive the process.
type MemoryPersister struct {
	mu    sync.Mutex
	state PersistedState
	saves int
}

// NewMemoryPersister returns a persister optionally seeded with state.
func NewMemoryPersister(seed PersistedState) *MemoryPersister {
	return &MemoryPersister{state: seed}
}

func (m *MemoryPersister) Load(_ context.Context) (PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryPersister) Save(_ context.Context, state PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.saves++
	return nil
}

func (m *MemoryPersister) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = PersistedState{}
	m.saves++
	return nil
}

// Saves returns how many writes reached the persister.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// ============================================================================
// FilePersister
// ============================================================================

// FilePersister stores the record as a JSON document keyed by StorageKey,
// written atomically (temp file + rename) with 0600 permissions.
type FilePersister struct {
	Path string

	mu sync.Mutex
}

// NewFilePersister returns a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

type fileDocument map[string]PersistedState

func (f *FilePersister) Load(_ context.Context) (PersistedState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return PersistedState{}, nil
	}
	if err != nil {
		return PersistedState{}, fmt.Errorf("read session file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return PersistedState{}, fmt.Errorf("decode session file: %w", err)
	}

	return doc[StorageKey], nil
}

func (f *FilePersister) Save(_ context.Context, state PersistedState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(fileDocument{StorageKey: state})
}

func (f *FilePersister) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FilePersister) write(doc fileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
