// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package admin

import (
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/blake2b"
)

// DefaultNonceLifetime bounds how long a token stays valid.
const DefaultNonceLifetime = 24 * time.Hour

// Nonces issues and verifies action tokens bound to a principal. A token is
// valid during the half-lifetime tick it was issued in and the next one.
type Nonces struct {
	key      [32]byte
	lifetime time.Duration
	now      func() time.Time
}

// NonceOption configures Nonces.
type NonceOption func(*Nonces)

// WithNonceLifetime overrides DefaultNonceLifetime.
func WithNonceLifetime(d time.Duration) NonceOption {
	return func(n *Nonces) {
		if d >= 2*time.Nanosecond {
			n.lifetime = d
		}
	}
}

// WithNonceClock overrides the clock used to compute ticks.
func WithNonceClock(now func() time.Time) NonceOption {
	return func(n *Nonces) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNonces derives a signing key from secret.
func NewNonces(secret string, opts ...NonceOption) (*Nonces, error) {
	if secret == "" {
		return nil, oops.Code("NONCE_KEY_EMPTY").
			Hint("set admin.secret or DICTATOR_ADMIN_SECRET").
			Errorf("nonce secret cannot be empty")
	}
	n := &Nonces{
		key:      blake2b.Sum256([]byte(secret)),
		lifetime: DefaultNonceLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Nonces) tick() int64 {
	return n.now().UnixNano() / int64(n.lifetime/2)
}

func (n *Nonces) sign(action, principal string, tick int64) []byte {
	mac, err := blake2b.New256(n.key[:])
	if err != nil {
		// 32-byte keys are always accepted.
		panic(err)
	}
	mac.Write([]byte(action))
	mac.Write([]byte{'|'})
	mac.Write([]byte(principal))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(tick, 10)))
	return mac.Sum(nil)
}

// Create returns a token for principal to perform action.
func (n *Nonces) Create(action, principal string) string {
	return hex.EncodeToString(n.sign(action, principal, n.tick())[:12])
}

// Verify reports whether token was issued for action and principal within
// the current or previous tick.
func (n *Nonces) Verify(action, principal, token string) bool {
	got, err := hex.DecodeString(token)
	if err != nil || len(got) != 12 {
		return false
	}
	tick := n.tick()
	for _, t := range []int64{tick, tick - 1} {
		if subtle.ConstantTimeCompare(got, n.sign(action, principal, t)[:12]) == 1 {
			return true
		}
	}
	return false
}
