// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package admin

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/plugindictator/dictator/internal/reconcile"
)

// ResetAction is the nonce action name for a reset request.
const ResetAction = "reset-plugins"

// Refusal reasons reported by ResetHandler.
const (
	ReasonBadToken     = "invalid or expired token"
	ReasonUnauthorized = "principal lacks " + CapabilityActivatePlugins
)

// Resetter performs the reset itself.
type Resetter interface {
	Reset(ctx context.Context, actor string) (reconcile.Result, error)
}

// ResetRequest is an operator's request to reset the active list.
type ResetRequest struct {
	Principal string
	Token     string
}

// Outcome reports what a reset request did. A refused request has
// Performed false and a Reason.
type Outcome struct {
	Performed bool
	Reason    string
	Result    reconcile.Result
}

// ResetHandler authorizes reset requests before delegating to a Resetter.
type ResetHandler struct {
	resetter Resetter
	nonces   *Nonces
	enforcer *Enforcer
	logger   *slog.Logger
}

// NewResetHandler creates a handler. All collaborators are required.
func NewResetHandler(r Resetter, nonces *Nonces, enforcer *Enforcer, logger *slog.Logger) (*ResetHandler, error) {
	if r == nil || nonces == nil || enforcer == nil {
		return nil, oops.Code("RESET_HANDLER_INCOMPLETE").Errorf("resetter, nonces and enforcer are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetHandler{resetter: r, nonces: nonces, enforcer: enforcer, logger: logger}, nil
}

// Token issues a reset token for principal.
func (h *ResetHandler) Token(principal string) string {
	return h.nonces.Create(ResetAction, principal)
}

// Handle verifies the token, then the principal's capability, and resets.
// Refusals are returned as an Outcome; only reset failures are errors.
func (h *ResetHandler) Handle(ctx context.Context, req ResetRequest) (Outcome, error) {
	if !h.nonces.Verify(ResetAction, req.Principal, req.Token) {
		h.logger.WarnContext(ctx, "reset refused", "principal", req.Principal, "reason", ReasonBadToken)
		return Outcome{Reason: ReasonBadToken}, nil
	}
	if !h.enforcer.Check(req.Principal, CapabilityActivatePlugins) {
		h.logger.WarnContext(ctx, "reset refused", "principal", req.Principal, "reason", ReasonUnauthorized)
		return Outcome{Reason: ReasonUnauthorized}, nil
	}

	res, err := h.resetter.Reset(ctx, req.Principal)
	if err != nil {
		return Outcome{}, oops.Code("RESET_FAILED").With("principal", req.Principal).Wrap(err)
	}
	return Outcome{Performed: true, Result: res}, nil
}
