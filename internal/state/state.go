// SPDX-License-Identifier: MPL-2.0

// Package state implements an optional persistent key/value store left
// unwired by default: a small TOML-backed map loaded and saved at
// explicit Open/Save calls, exercised by nothing in internal/app's
// default composition. It exists for a future collaborator that needs
// state across process restarts, not for the core's own use.
package state

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Store is a flat string/string persistent store backed by a single
// TOML file, grounded on internal/config's load/save shape but kept
// deliberately separate: config is process configuration, state is
// task-writable data, and conflating the two would invent persistence
// semantics neither concern actually has.
type Store struct {
	path   string
	values map[string]string
}

// Open loads path if it exists, or starts with an empty store if it
// doesn't — Open never fails on a missing file, only on a malformed one.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("state: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("state: parsing %s: %w", path, err)
	}
	return s, nil
}

// Get returns the value stored under key, and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key in memory; call Save to persist.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Delete removes key from the store, if present.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Save writes the current in-memory contents to the backing file.
func (s *Store) Save() error {
	data, err := toml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("state: encoding %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("state: writing %s: %w", s.path, err)
	}
	return nil
}
