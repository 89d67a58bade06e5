// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package admin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugindictator/dictator/internal/admin"
	"github.com/plugindictator/dictator/pkg/errutil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newNonces(t *testing.T, clock *fakeClock) *admin.Nonces {
	t.Helper()
	n, err := admin.NewNonces("s3cret", admin.WithNonceClock(clock.Now))
	require.NoError(t, err)
	return n
}

func TestNonces_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	n := newNonces(t, clock)

	token := n.Create(admin.ResetAction, "alice")
	assert.Len(t, token, 24)
	assert.True(t, n.Verify(admin.ResetAction, "alice", token))
}

func TestNonces_BoundToActionAndPrincipal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	n := newNonces(t, clock)
	token := n.Create(admin.ResetAction, "alice")

	assert.False(t, n.Verify(admin.ResetAction, "bob", token))
	assert.False(t, n.Verify("other-action", "alice", token))
}

func TestNonces_DifferentSecretsDisagree(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	a := newNonces(t, clock)
	b, err := admin.NewNonces("other", admin.WithNonceClock(clock.Now))
	require.NoError(t, err)

	assert.False(t, b.Verify(admin.ResetAction, "alice", a.Create(admin.ResetAction, "alice")))
}

func TestNonces_Expiry(t *testing.T) {
	// Tick boundaries fall on multiples of 12h since the epoch.
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	n := newNonces(t, clock)
	token := n.Create(admin.ResetAction, "alice")

	clock.t = start.Add(23 * time.Hour)
	assert.True(t, n.Verify(admin.ResetAction, "alice", token), "previous tick is accepted")

	clock.t = start.Add(24 * time.Hour)
	assert.False(t, n.Verify(admin.ResetAction, "alice", token), "two ticks later is rejected")
}

func TestNonces_RejectsMalformedTokens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	n := newNonces(t, clock)

	for _, token := range []string{"", "zz", "abcd", n.Create(admin.ResetAction, "alice") + "00"} {
		assert.False(t, n.Verify(admin.ResetAction, "alice", token), token)
	}
}

func TestNonces_CustomLifetime(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	n, err := admin.NewNonces("s3cret", admin.WithNonceClock(clock.Now), admin.WithNonceLifetime(time.Hour))
	require.NoError(t, err)
	token := n.Create(admin.ResetAction, "alice")

	clock.t = start.Add(59 * time.Minute)
	assert.True(t, n.Verify(admin.ResetAction, "alice", token))
	clock.t = start.Add(time.Hour)
	assert.False(t, n.Verify(admin.ResetAction, "alice", token))
}

func TestNewNonces_RequiresSecret(t *testing.T) {
	_, err := admin.NewNonces("")
	errutil.AssertErrorCode(t, err, "NONCE_KEY_EMPTY")
}
