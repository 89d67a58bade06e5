// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package store persists the host's option values. The only option the
// engine touches is the list of active plugins, stored as a JSON array.
package store

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"

	"github.com/plugindictator/dictator/internal/env"
)

// Store reads and writes a named list-valued option.
type Store interface {
	// Load returns the stored list and whether the option exists.
	Load(ctx context.Context, key string) ([]string, bool, error)
	// Save replaces the stored list.
	Save(ctx context.Context, key string, value []string) error
	// Close releases resources held by the store.
	Close() error
}

// Open creates the store selected by settings.
func Open(ctx context.Context, s env.StoreSettings) (Store, error) {
	switch s.Driver {
	case env.DriverMemory:
		return NewMemoryStore(), nil
	case env.DriverBolt:
		st, err := OpenBoltStore(s.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case env.DriverPostgres:
		st, err := ConnectPostgresStore(ctx, s.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, oops.Code("STORE_UNKNOWN_DRIVER").With("driver", s.Driver).Errorf("unknown store driver %q", s.Driver)
	}
}

func checkKey(key string) error {
	if key == "" {
		return oops.Code("STORE_INVALID_KEY").Errorf("option key is empty")
	}
	return nil
}

func encode(key string, value []string) ([]byte, error) {
	if value == nil {
		value = []string{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, oops.Code("STORE_ENCODE_FAILED").With("key", key).Wrap(err)
	}
	return data, nil
}

func decode(key string, data []byte) ([]string, error) {
	var value []string
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, oops.Code("STORE_CORRUPT_VALUE").With("key", key).Wrap(err)
	}
	if value == nil {
		value = []string{}
	}
	return value, nil
}
