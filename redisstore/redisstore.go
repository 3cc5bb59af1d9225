// Package redisstore provides the shared-store backends for session and
// login-attempt state. Every instance of a deployment talks to the same
// keys, so a session revoked or an attempt counted on one node is visible
// to all others on the next read. Counter updates run as server-side
// scripts, making them atomic: concurrent failures never lose an increment.
package redisstore

import (
	"github.com/goliatone/go-gate"
	"github.com/redis/go-redis/v9"
)

var (
	_ gate.SessionStore = (*SessionStore)(nil)
	_ gate.AttemptStore = (*AttemptStore)(nil)
)

const (
	sessionKeyPrefix = "gate:session:"
	attemptKeyPrefix = "gate:attempts:"
	blockedKeyPrefix = "gate:blocked:"
)

// Stores bundles the session and attempt stores sharing one client.
type Stores struct {
	Sessions *SessionStore
	Attempts *AttemptStore
}

// New creates both stores on top of an existing client.
func New(client redis.UniversalClient) *Stores {
	return &Stores{
		Sessions: NewSessionStore(client),
		Attempts: NewAttemptStore(client),
	}
}
