package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer-token-authenticated handle bound to one user, with a
// finite TTL. Token is opaque; never logged.
type Session struct {
	ID        uuid.UUID
	User      uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at t. An
// expired session is observationally equivalent to not-found.
func (s *Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Clone returns a shallow copy of s; Session has no nested reference
// fields, so this is only needed for symmetry with the other entities'
// Clone methods used when building the next storage snapshot.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// Membership is a (user, group) pair.
type Membership struct {
	UserID  uuid.UUID
	GroupID uuid.UUID
}

// UserPolicyAttachment is a (user, policy) pair.
type UserPolicyAttachment struct {
	UserID   uuid.UUID
	PolicyID uuid.UUID
}

// GroupPolicyAttachment is a (group, policy) pair.
type GroupPolicyAttachment struct {
	GroupID  uuid.UUID
	PolicyID uuid.UUID
}
