// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps options in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]string
	runs   []Run
	saves  int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]string)}
}

// NewMemoryStoreWith creates a MemoryStore holding value under key.
func NewMemoryStoreWith(key string, value []string) *MemoryStore {
	s := NewMemoryStore()
	s.values[key] = slices.Clone(value)
	return s
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, value []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		value = []string{}
	}
	s.values[key] = slices.Clone(value)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
