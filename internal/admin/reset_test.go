// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugindictator/dictator/internal/admin"
	"github.com/plugindictator/dictator/internal/logging"
	"github.com/plugindictator/dictator/internal/reconcile"
	"github.com/plugindictator/dictator/pkg/errutil"
)

type stubResetter struct {
	calls  []string
	result reconcile.Result
	err    error
}

func (s *stubResetter) Reset(_ context.Context, actor string) (reconcile.Result, error) {
	s.calls = append(s.calls, actor)
	return s.result, s.err
}

func newHandler(t *testing.T, r admin.Resetter) *admin.ResetHandler {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	nonces := newNonces(t, clock)
	enforcer, err := admin.NewEnforcer(map[string][]string{
		"alice": {"plugins.*"},
		"bob":   {"plugins.manage"},
	})
	require.NoError(t, err)
	h, err := admin.NewResetHandler(r, nonces, enforcer, logging.Discard())
	require.NoError(t, err)
	return h
}

func TestResetHandler_Performs(t *testing.T) {
	r := &stubResetter{result: reconcile.Result{RunID: "run", Activated: []string{"a/a.php"}}}
	h := newHandler(t, r)

	out, err := h.Handle(context.Background(), admin.ResetRequest{Principal: "alice", Token: h.Token("alice")})
	require.NoError(t, err)
	assert.True(t, out.Performed)
	assert.Empty(t, out.Reason)
	assert.Equal(t, "run", out.Result.RunID)
	assert.Equal(t, []string{"alice"}, r.calls)
}

func TestResetHandler_BadTokenRefused(t *testing.T) {
	r := &stubResetter{}
	h := newHandler(t, r)

	out, err := h.Handle(context.Background(), admin.ResetRequest{Principal: "alice", Token: h.Token("bob")})
	require.NoError(t, err)
	assert.False(t, out.Performed)
	assert.Equal(t, admin.ReasonBadToken, out.Reason)
	assert.Empty(t, r.calls)
}

func TestResetHandler_TokenCheckedBeforeCapability(t *testing.T) {
	r := &stubResetter{}
	h := newHandler(t, r)

	out, err := h.Handle(context.Background(), admin.ResetRequest{Principal: "mallory", Token: "nope"})
	require.NoError(t, err)
	assert.Equal(t, admin.ReasonBadToken, out.Reason)
}

func TestResetHandler_UnauthorizedRefused(t *testing.T) {
	r := &stubResetter{}
	h := newHandler(t, r)

	out, err := h.Handle(context.Background(), admin.ResetRequest{Principal: "bob", Token: h.Token("bob")})
	require.NoError(t, err)
	assert.False(t, out.Performed)
	assert.Equal(t, admin.ReasonUnauthorized, out.Reason)
	assert.Empty(t, r.calls)
}

func TestResetHandler_ResetFailure(t *testing.T) {
	r := &stubResetter{err: errors.New("boom")}
	h := newHandler(t, r)

	_, err := h.Handle(context.Background(), admin.ResetRequest{Principal: "alice", Token: h.Token("alice")})
	errutil.AssertErrorCode(t, err, "RESET_FAILED")
	errutil.AssertErrorContext(t, err, "principal", "alice")
}

func TestNewResetHandler_RequiresCollaborators(t *testing.T) {
	_, err := admin.NewResetHandler(nil, nil, nil, nil)
	errutil.AssertErrorCode(t, err, "RESET_HANDLER_INCOMPLETE")
}
