// Package config persists the user-level preferences document described
// in spec component C2: registry selection, per-agent image overrides,
// and the prefer/push registry flags. It follows the teacher's own
// persistence idiom — a single JSON file under a dot-directory in the
// user's home, writes serialized with an advisory flock.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

// Record is the persisted user config document.
type Record struct {
	RegistryKind          agentkind.RegistryKind                `json:"registry_kind"`
	RegistryUser          string                                 `json:"registry_user,omitempty"`
	PreferRegistryImages  bool                                   `json:"prefer_registry_images"`
	PushImages            bool                                   `json:"push_images"`
	PrivateRegistry       string                                 `json:"private_registry,omitempty"`
	PerAgentOverrides     map[agentkind.Kind]agentkind.ImageRef  `json:"per_agent_overrides,omitempty"`
	LastBuildAt           *time.Time                             `json:"last_build_at,omitempty"`
	Extensions            map[string]json.RawMessage             `json:"extensions,omitempty"`
}

// Default returns the record a fresh install starts from.
func Default() Record {
	return Record{
		RegistryKind:         agentkind.Hub,
		PreferRegistryImages: true,
		PushImages:           true,
		PerAgentOverrides:    map[agentkind.Kind]agentkind.ImageRef{},
	}
}

// Store reads and writes the config document at Path, serializing writers
// with a flock on a sibling lock file the way the teacher's daemon guards
// its own PID file.
type Store struct {
	Path string
}

// DefaultPath returns `$HOME/.vibekit/config.json`.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".vibekit", "config.json"), nil
}

// NewStore constructs a Store rooted at path. An empty path resolves to
// DefaultPath().
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{Path: path}, nil
}

// Load reads the document, returning Default() if the file does not yet
// exist.
func (s *Store) Load() (Record, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("config: reading %s: %w", s.Path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("config: decoding %s: %w", s.Path, err)
	}
	if rec.PerAgentOverrides == nil {
		rec.PerAgentOverrides = map[agentkind.Kind]agentkind.ImageRef{}
	}
	return rec, nil
}

// SaveFull rewrites the whole document, serialized against other writers
// by an exclusive flock on a sibling `.lock` file.
func (s *Store) SaveFull(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o750); err != nil {
		return fmt.Errorf("config: creating config directory: %w", err)
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding record: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("config: replacing %s: %w", s.Path, err)
	}
	return nil
}

// UpdatePartial loads the current record, applies mutate, and saves the
// result whole — there is no partial-write mode.
func (s *Store) UpdatePartial(mutate func(*Record)) (Record, error) {
	rec, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	mutate(&rec)
	if err := s.SaveFull(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// GetPerAgentOverride returns the override reference for kind, if set.
func (s *Store) GetPerAgentOverride(kind agentkind.Kind) (agentkind.ImageRef, bool, error) {
	rec, err := s.Load()
	if err != nil {
		return agentkind.ImageRef{}, false, err
	}
	ref, ok := rec.PerAgentOverrides[kind]
	return ref, ok, nil
}

// SetPerAgentOverride persists an override reference for kind.
func (s *Store) SetPerAgentOverride(kind agentkind.Kind, ref agentkind.ImageRef) error {
	_, err := s.UpdatePartial(func(r *Record) {
		if r.PerAgentOverrides == nil {
			r.PerAgentOverrides = map[agentkind.Kind]agentkind.ImageRef{}
		}
		r.PerAgentOverrides[kind] = ref
	})
	return err
}

// Delete removes the config document entirely.
func (s *Store) Delete() error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: deleting %s: %w", s.Path, err)
	}
	return nil
}

func (s *Store) lock() (func(), error) {
	lockPath := s.Path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("config: opening lock file %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("config: acquiring lock on %s: %w", lockPath, err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
