// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package store

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"
)

// Run records one reset that changed the stored plugin list.
type Run struct {
	ID          string    `json:"id"               yaml:"id"`
	Option      string    `json:"option"           yaml:"option"`
	Actor       string    `json:"actor,omitempty"  yaml:"actor,omitempty"`
	Activated   []string  `json:"activated"        yaml:"activated"`
	Deactivated []string  `json:"deactivated"      yaml:"deactivated"`
	CreatedAt   time.Time `json:"created_at"       yaml:"created_at"`
}

// RunRecorder is implemented by stores that keep a history of resets.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
	// Runs returns the most recent runs for option, newest first.
	Runs(ctx context.Context, option string, limit int) ([]Run, error)
}

// RecordRun implements RunRecorder.
func (s *MemoryStore) RecordRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// Runs implements RunRecorder.
func (s *MemoryStore) Runs(_ context.Context, option string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Run
	for _, run := range slices.Backward(s.runs) {
		if run.Option != option {
			continue
		}
		out = append(out, run)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var runsBucket = []byte("reset_runs")

// RecordRun implements RunRecorder. Run IDs sort by time, so the bucket
// stays in chronological order.
func (s *BoltStore) RecordRun(_ context.Context, run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return oops.Code("STORE_ENCODE_FAILED").With("run_id", run.ID).Wrap(err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(run.ID), data)
	})
	if err != nil {
		return oops.Code("STORE_SAVE_FAILED").With("run_id", run.ID).Wrap(err)
	}
	return nil
}

// Runs implements RunRecorder.
func (s *BoltStore) Runs(_ context.Context, option string, limit int) ([]Run, error) {
	var out []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return oops.Code("STORE_CORRUPT_VALUE").With("run_id", string(k)).Wrap(err)
			}
			if run.Option != option {
				continue
			}
			out = append(out, run)
			if limit > 0 && len(out) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("STORE_LOAD_FAILED").With("option", option).Wrap(err)
	}
	return out, nil
}

// RecordRun implements RunRecorder.
func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	activated, err := encode(run.Option, run.Activated)
	if err != nil {
		return err
	}
	deactivated, err := encode(run.Option, run.Deactivated)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO reset_runs (id, option_name, actor, activated, deactivated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Option, run.Actor, activated, deactivated, run.CreatedAt)
	if err != nil {
		return wrapPgError("STORE_SAVE_FAILED", run.Option, err)
	}
	return nil
}

// Runs implements RunRecorder.
func (s *PostgresStore) Runs(ctx context.Context, option string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, option_name, actor, activated, deactivated, created_at
		 FROM reset_runs WHERE option_name = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		option, limit)
	if err != nil {
		return nil, wrapPgError("STORE_LOAD_FAILED", option, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var activated, deactivated []byte
		if err := rows.Scan(&run.ID, &run.Option, &run.Actor, &activated, &deactivated, &run.CreatedAt); err != nil {
			return nil, oops.Code("STORE_LOAD_FAILED").With("operation", "scan reset run").Wrap(err)
		}
		if run.Activated, err = decode(option, activated); err != nil {
			return nil, err
		}
		if run.Deactivated, err = decode(option, deactivated); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STORE_LOAD_FAILED").With("operation", "iterate reset runs").Wrap(err)
	}
	return out, nil
}
