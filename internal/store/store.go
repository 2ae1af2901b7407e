// Package store persists the allow-list sets and the enforcement flag as
// flat JSON snapshots. Each resource is a self-contained file; a missing or
// unreadable file is a valid empty/default state, never a startup error.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"vocalgate/internal/fsutil"
)

// Resource file names match the original deployment layout so existing
// state files keep loading across upgrades.
const (
	userFile = "whitelist_users.json"
	roleFile = "whitelist_roles.json"
	lockFile = "lock_state.json"

	fileMode = 0o644
)

type lockRecord struct {
	Locked bool `json:"locked"`
}

// Store reads and writes snapshot resources under a single directory.
// Writes are atomic (staged and renamed); loads fail open to defaults.
type Store struct {
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// LoadUserSet returns the persisted user allow-list, or an empty set when
// the resource is missing or corrupt.
func (s *Store) LoadUserSet() map[string]struct{} {
	return s.loadSet(userFile)
}

// LoadRoleSet returns the persisted role allow-list, or an empty set when
// the resource is missing or corrupt.
func (s *Store) LoadRoleSet() map[string]struct{} {
	return s.loadSet(roleFile)
}

// LoadLockFlag returns the persisted enforcement flag, false by default.
func (s *Store) LoadLockFlag() bool {
	raw, err := os.ReadFile(filepath.Join(s.dir, lockFile))
	if err != nil {
		return false
	}
	var rec lockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("ignoring corrupt lock snapshot", zap.String("file", lockFile), zap.Error(err))
		return false
	}
	return rec.Locked
}

func (s *Store) SaveUserSet(set map[string]struct{}) error {
	return s.saveSet(userFile, set)
}

func (s *Store) SaveRoleSet(set map[string]struct{}) error {
	return s.saveSet(roleFile, set)
}

func (s *Store) SaveLockFlag(locked bool) error {
	data, err := json.MarshalIndent(lockRecord{Locked: locked}, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(filepath.Join(s.dir, lockFile), append(data, '\n'), fileMode)
}

func (s *Store) loadSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return set
	}

	// Earlier deployments wrote ids as JSON numbers; accept both. Decoding
	// with UseNumber keeps 64-bit snowflakes intact.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var entries []any
	if err := dec.Decode(&entries); err != nil {
		s.logger.Warn("ignoring corrupt snapshot", zap.String("file", name), zap.Error(err))
		return make(map[string]struct{})
	}
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if v != "" {
				set[v] = struct{}{}
			}
		case json.Number:
			set[v.String()] = struct{}{}
		}
	}
	return set
}

func (s *Store) saveSet(name string, set map[string]struct{}) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(filepath.Join(s.dir, name), append(data, '\n'), fileMode)
}
