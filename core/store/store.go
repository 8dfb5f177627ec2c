// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package store is the shared state store of the front end.

A Store holds named state containers. It is constructed once by the caller and
passed to whatever needs it; there is no package level instance.
*/
package store

import (
	"maps"
	"slices"
	"sync"
)

// Store is a set of named state containers. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	states map[string]*State
}

// New returns an empty store.
func New() *Store {
	return &Store{states: make(map[string]*State)}
}

// Define registers the container id with the values returned by init.
// Defining an id again returns the existing container and does not call init.
func (s *Store) Define(id string, init func() map[string]any) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[id]; ok {
		return st
	}

	st := &State{id: id, init: init}
	st.values = st.initial()
	s.states[id] = st

	return st
}

// Lookup returns the container id if it has been defined.
func (s *Store) Lookup(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]

	return st, ok
}

// IDs returns the defined container ids, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.states))
}

// Listener is called after a patch with the keys whose values were set.
type Listener func(changed []string)

// State is one named container of key/value state.
type State struct {
	id   string
	init func() map[string]any

	mu        sync.RWMutex
	values    map[string]any
	listeners []Listener
}

// ID returns the container id.
func (st *State) ID() string {
	return st.id
}

func (st *State) initial() map[string]any {
	values := make(map[string]any)
	if st.init != nil {
		maps.Copy(values, st.init())
	}

	return values
}

// Get returns the value of key.
func (st *State) Get(key string) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	v, ok := st.values[key]

	return v, ok
}

// Patch sets every key of values and notifies the listeners.
func (st *State) Patch(values map[string]any) {
	if len(values) == 0 {
		return
	}

	st.mu.Lock()
	maps.Copy(st.values, values)
	listeners := slices.Clone(st.listeners)
	st.mu.Unlock()

	changed := slices.Sorted(maps.Keys(values))
	for _, fn := range listeners {
		fn(changed)
	}
}

// Delete removes key.
func (st *State) Delete(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.values, key)
}

// Snapshot returns a copy of the current values.
func (st *State) Snapshot() map[string]any {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return maps.Clone(st.values)
}

// Reset restores the values returned by the container's init function.
func (st *State) Reset() {
	values := st.initial()

	st.mu.Lock()
	st.values = values
	st.mu.Unlock()
}

// Subscribe adds fn to the listeners called after each patch.
func (st *State) Subscribe(fn Listener) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.listeners = append(st.listeners, fn)
}

// Value returns the value of key as T. ok is false when the key is missing or
// holds another type.
func Value[T any](st *State, key string) (T, bool) {
	var zero T

	v, ok := st.Get(key)
	if !ok {
		return zero, false
	}

	t, ok := v.(T)
	if !ok {
		return zero, false
	}

	return t, true
}
