// Package form holds the mutable state of one entity being created or edited
// and the per-kind rules for seeding, validating and serializing it.
package form

import (
	"maps"
	"sync"
)

// State is the shared form state of one open dialog. Plain inputs and
// background upload completions both write through Set, so the last write
// wins and every write bumps Version.
type State struct {
	mu      sync.Mutex
	values  map[string]string
	version uint64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{values: make(map[string]string)}
}

// Get returns the value stored under key, or "".
func (s *State) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set stores value under key.
func (s *State) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.version++
}

// Reset replaces every value at once.
func (s *State) Reset(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string, len(values))
	maps.Copy(s.values, values)
	s.version++
}

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

// Version counts writes since creation.
func (s *State) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
