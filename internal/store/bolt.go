// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"
)

var optionsBucket = []byte("options")

// BoltStore keeps options in a local bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, oops.Code("STORE_OPEN_FAILED").Errorf("bolt store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	return &BoltStore{db: db}, nil
}

// Load implements Store.
func (s *BoltStore) Load(_ context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(optionsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, oops.Code("STORE_LOAD_FAILED").With("key", key).Wrap(err)
	}
	if data == nil {
		return nil, false, nil
	}
	value, err := decode(key, data)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Save implements Store.
func (s *BoltStore) Save(_ context.Context, key string, value []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(optionsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return oops.Code("STORE_SAVE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("STORE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
