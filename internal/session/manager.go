// Package session implements the session lifecycle: it
// generates the two identifiers a session is made of (a UUID sid and a
// 256-bit opaque bearer token) and drives them through a storage.Store.
// Generation happens here, outside any storage transaction —
// the store never consults the RNG while holding its lock.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/storage"
)

// DefaultTTL is used when Manager is constructed with a zero TTL.
const DefaultTTL = time.Hour

// Manager creates and refreshes sessions against a storage.Store.
type Manager struct {
	store storage.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a Manager with the given default TTL. A ttl <= 0
// falls back to DefaultTTL.
func NewManager(store storage.SessionStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// newToken returns a 256-bit random value encoded as URL-safe base64,
// an opaque bearer token, not a predictable identifier.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create opens a new session for uid with the manager's default TTL.
func (m *Manager) Create(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	sess := &domain.Session{
		ID:        uuid.New(),
		User:      uid,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Authenticate resolves a bearer token to its session, scoped to uid:
// cross-user lookups and expired sessions are both reported as NotFound
// by the store.
func (m *Manager) Authenticate(ctx context.Context, uid uuid.UUID, token string) (*domain.Session, error) {
	return m.store.GetSessionByToken(ctx, uid, token)
}

// Refresh extends sid's expiry by the manager's default TTL, measured from
// now.
func (m *Manager) Refresh(ctx context.Context, uid, sid uuid.UUID) (*domain.Session, error) {
	return m.store.RefreshSession(ctx, uid, sid, m.now().UTC().Add(m.ttl))
}

// Revoke deletes sid, scoped to uid.
func (m *Manager) Revoke(ctx context.Context, uid, sid uuid.UUID) error {
	return m.store.DeleteSession(ctx, uid, sid)
}
