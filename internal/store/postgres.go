// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// poolIface is the subset of pgxpool.Pool the store uses. pgxmock pools
// satisfy it as well.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps options in the options table of a PostgreSQL database.
type PostgresStore struct {
	pool poolIface
}

// NewPostgresStore creates a store on an existing pool. The store takes
// ownership of the pool and closes it on Close.
func NewPostgresStore(pool poolIface) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// connectAttempts bounds how often ConnectPostgresStore pings the database.
const connectAttempts = 5

// ConnectPostgresStore opens a pool for dsn and waits for the database to
// answer, backing off between attempts.
func ConnectPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, oops.Code("STORE_OPEN_FAILED").Errorf("postgres dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_OPEN_FAILED").With("operation", "ping").With("attempts", connectAttempts).Wrap(err)
	}
	return NewPostgresStore(pool), nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapPgError("STORE_LOAD_FAILED", key, err)
	}
	value, err := decode(key, data)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, key string, value []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO options (name, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, data)
	if err != nil {
		return wrapPgError("STORE_SAVE_FAILED", key, err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("STORE_UNAVAILABLE").Wrap(err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func wrapPgError(code, key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return oops.Code("STORE_NOT_MIGRATED").With("key", key).
			Hint("run the migrate command first").Wrap(err)
	}
	return oops.Code(code).With("key", key).Wrap(err)
}
