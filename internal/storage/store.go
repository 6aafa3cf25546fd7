// Package storage defines the capability contract the rest of the server
// depends on: a Store interface over users, groups, policies, sessions,
// memberships, and attachments. Handlers depend on this interface only;
// concrete stores (in-memory, PostgreSQL) are injected at startup.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mtaylorio/iam-server/internal/domain"
)

// Store is the full capability set, grouped the way the domain model
// groups it. Every operation either returns a value or fails with one of
// the errors in internal/domain (ErrNotFound, ErrAlreadyExists,
// ErrInternal); a persistent backend may also return its own driver error
// for failures it does not map.
type Store interface {
	UserStore
	GroupStore
	PolicyStore
	MembershipStore
	AttachmentStore
	SessionStore
}

// UserStore covers user CRUD and identifier resolution.
type UserStore interface {
	// GetUser resolves ident and returns the full User. Fails NotFound if
	// unresolved.
	GetUser(ctx context.Context, ident domain.UserIdentifier) (*domain.User, error)

	// GetUserID resolves any UserIdentifier variant to its canonical UUID.
	GetUserID(ctx context.Context, ident domain.UserIdentifier) (uuid.UUID, error)

	// ListUsers returns up to limit users starting at offset, in a stable
	// order. limit <= 0 means "no limit".
	ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// CreateUser inserts a new user. Fails AlreadyExists if the email
	// alias is already taken by another user.
	CreateUser(ctx context.Context, user *domain.User) error

	// DeleteUser removes a user together with its memberships and policy
	// attachments. Whether the user's sessions are removed too depends on
	// the implementation (the in-memory store keeps them, the PostgreSQL
	// schema cascades to them); in both, lookups of a deleted user's
	// sessions fail NotFound.
	DeleteUser(ctx context.Context, ident domain.UserIdentifier) error
}

// GroupStore covers group CRUD.
type GroupStore interface {
	GetGroup(ctx context.Context, ident domain.GroupIdentifier) (*domain.Group, error)
	ListGroups(ctx context.Context, offset, limit int) ([]*domain.Group, error)
	CreateGroup(ctx context.Context, group *domain.Group) error
	DeleteGroup(ctx context.Context, ident domain.GroupIdentifier) error
}

// PolicyStore covers policy CRUD and the aggregation query used by the
// authorization handler.
type PolicyStore interface {
	GetPolicy(ctx context.Context, ident domain.PolicyIdentifier) (*domain.Policy, error)
	ListPolicyIDs(ctx context.Context, offset, limit int) ([]uuid.UUID, error)
	CreatePolicy(ctx context.Context, policy *domain.Policy) error
	UpdatePolicy(ctx context.Context, policy *domain.Policy) error
	DeletePolicy(ctx context.Context, ident domain.PolicyIdentifier) error

	// ListPoliciesForUser returns every policy attached to uid directly or
	// via any group uid belongs to, filtered to Hostname == host. No
	// duplicates required.
	ListPoliciesForUser(ctx context.Context, uid uuid.UUID, host string) ([]*domain.Policy, error)
}

// MembershipStore covers (user, group) membership pairs.
type MembershipStore interface {
	// CreateMembership resolves both identifiers, then inserts the pair.
	// Fails AlreadyExists if already present, NotFound if either endpoint
	// does not resolve.
	CreateMembership(ctx context.Context, uid domain.UserIdentifier, gid domain.GroupIdentifier) error
	DeleteMembership(ctx context.Context, uid domain.UserIdentifier, gid domain.GroupIdentifier) error
}

// AttachmentStore covers policy attachments to users and groups.
type AttachmentStore interface {
	CreateUserPolicyAttachment(ctx context.Context, uid domain.UserIdentifier, pid domain.PolicyIdentifier) error
	DeleteUserPolicyAttachment(ctx context.Context, uid domain.UserIdentifier, pid domain.PolicyIdentifier) error
	CreateGroupPolicyAttachment(ctx context.Context, gid domain.GroupIdentifier, pid domain.PolicyIdentifier) error
	DeleteGroupPolicyAttachment(ctx context.Context, gid domain.GroupIdentifier, pid domain.PolicyIdentifier) error
}

// SessionStore covers session lifecycle operations. Every lookup
// cross-checks that the session's owner matches uid: a session
// belonging to another user is reported as NotFound, never as a
// distinguishable "forbidden."
type SessionStore interface {
	// CreateSession installs an already-constructed session (id and token
	// generated outside any transaction).
	CreateSession(ctx context.Context, session *domain.Session) error

	GetSessionByID(ctx context.Context, uid, sid uuid.UUID) (*domain.Session, error)
	GetSessionByToken(ctx context.Context, uid uuid.UUID, token string) (*domain.Session, error)

	// RefreshSession sets a new expiry on the session, atomically.
	RefreshSession(ctx context.Context, uid, sid uuid.UUID, expiresAt time.Time) (*domain.Session, error)

	DeleteSession(ctx context.Context, uid, sid uuid.UUID) error
	ListUserSessions(ctx context.Context, uid uuid.UUID, offset, limit int) ([]*domain.Session, error)
}
