// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugindictator/dictator/pkg/errutil"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	pending []uint
	calls   []string
	forced  int
	upErr   error
	closed  bool
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.forced = version
	return nil
}

func (f *fakeMigrator) Pending() ([]uint, error) { return f.pending, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func useFakeMigrator(t *testing.T, f *fakeMigrator) *string {
	t.Helper()
	var gotURL string
	orig := newMigrator
	newMigrator = func(url string) (migrator, error) {
		gotURL = url
		return f, nil
	}
	t.Cleanup(func() { newMigrator = orig })
	return &gotURL
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "non-numeric returns error", input: "abc", wantErr: true},
		{name: "trailing chars are ignored", input: "3abc", wantVersion: 3},
		{name: "negative parses", input: "-1", wantVersion: -1},
		{name: "empty string returns error", input: "", wantErr: true},
		{name: "whitespace only returns error", input: "   ", wantErr: true},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/db")
		f := &fakeMigrator{}
		got := useFakeMigrator(t, f)

		_, err := execute(t, "migrate", "up", "--store-dsn", "postgres://flag/db")
		require.NoError(t, err)
		assert.Equal(t, "postgres://flag/db", *got)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/db")
		f := &fakeMigrator{}
		got := useFakeMigrator(t, f)

		_, err := execute(t, "migrate")
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", *got)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := execute(t, "migrate", "status")
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestMigrate_Commands(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	f := &fakeMigrator{}
	useFakeMigrator(t, f)
	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations completed successfully")
	assert.True(t, f.closed)

	f = &fakeMigrator{}
	useFakeMigrator(t, f)
	_, err = execute(t, "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, []string{"down"}, f.calls)

	f = &fakeMigrator{}
	useFakeMigrator(t, f)
	out, err = execute(t, "migrate", "force", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, f.forced)
	assert.Contains(t, out, "Forced version 2")

	_, err = execute(t, "migrate", "force", "two")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrate_Status(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	useFakeMigrator(t, &fakeMigrator{version: 1, pending: []uint{2}})
	out, err := execute(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 1 (clean)")
	assert.Contains(t, out, "000002_reset_runs")

	useFakeMigrator(t, &fakeMigrator{version: 2, dirty: true})
	out, err = execute(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 2 (dirty)")
	assert.Contains(t, out, "No pending migrations")
}

func TestMigrate_UpFailureStillCloses(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	f := &fakeMigrator{upErr: errors.New("boom")}
	useFakeMigrator(t, f)

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.True(t, f.closed)
}
