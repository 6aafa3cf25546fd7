// Package memory implements storage.Store as a single shared, versioned
// snapshot guarded by a mutex — the Go-idiomatic rendering of the
// "software-transactional cell." Every write operation builds the next
// snapshot from the current one (cloning only the entities it touches) and
// installs it with one pointer swap, all while holding the write lock;
// every read operation takes a consistent point-in-time snapshot under the
// read lock. Readers never block each other, but a reader waits while a
// writer builds and installs its next snapshot. No operation performs I/O or consults
// the random source while holding the lock — ids and tokens are
// generated by callers (internal/session) before the state-mutating call.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtaylorio/iam-server/internal/domain"
)

type membershipKey struct {
	UserID  uuid.UUID
	GroupID uuid.UUID
}

type userPolicyKey struct {
	UserID   uuid.UUID
	PolicyID uuid.UUID
}

type groupPolicyKey struct {
	GroupID  uuid.UUID
	PolicyID uuid.UUID
}

// state is an immutable snapshot of the whole store. "Immutable" is a
// discipline, not a compiler guarantee: once installed, a state value is
// never mutated in place — every write produces a new one.
type state struct {
	users    map[uuid.UUID]*domain.User
	groups   map[uuid.UUID]*domain.Group
	policies map[uuid.UUID]*domain.Policy
	sessions map[uuid.UUID]*domain.Session

	sessionToken map[string]uuid.UUID // token -> sid

	emailIndex      map[string]uuid.UUID // lowercased email -> uid
	groupNameIndex  map[string]uuid.UUID
	policyNameIndex map[string]uuid.UUID

	memberships   map[membershipKey]struct{}
	userPolicies  map[userPolicyKey]struct{}
	groupPolicies map[groupPolicyKey]struct{}
}

func emptyState() *state {
	return &state{
		users:           make(map[uuid.UUID]*domain.User),
		groups:          make(map[uuid.UUID]*domain.Group),
		policies:        make(map[uuid.UUID]*domain.Policy),
		sessions:        make(map[uuid.UUID]*domain.Session),
		sessionToken:    make(map[string]uuid.UUID),
		emailIndex:      make(map[string]uuid.UUID),
		groupNameIndex:  make(map[string]uuid.UUID),
		policyNameIndex: make(map[string]uuid.UUID),
		memberships:     make(map[membershipKey]struct{}),
		userPolicies:    make(map[userPolicyKey]struct{}),
		groupPolicies:   make(map[groupPolicyKey]struct{}),
	}
}

// clone returns a shallow copy of s whose top-level maps are fresh (so the
// caller can insert/delete keys without mutating the snapshot other
// readers may still be holding), while entity values are shared until the
// write path explicitly clones the one(s) it is changing.
func (s *state) clone() *state {
	n := &state{
		users:           make(map[uuid.UUID]*domain.User, len(s.users)),
		groups:          make(map[uuid.UUID]*domain.Group, len(s.groups)),
		policies:        make(map[uuid.UUID]*domain.Policy, len(s.policies)),
		sessions:        make(map[uuid.UUID]*domain.Session, len(s.sessions)),
		sessionToken:    make(map[string]uuid.UUID, len(s.sessionToken)),
		emailIndex:      make(map[string]uuid.UUID, len(s.emailIndex)),
		groupNameIndex:  make(map[string]uuid.UUID, len(s.groupNameIndex)),
		policyNameIndex: make(map[string]uuid.UUID, len(s.policyNameIndex)),
		memberships:     make(map[membershipKey]struct{}, len(s.memberships)),
		userPolicies:    make(map[userPolicyKey]struct{}, len(s.userPolicies)),
		groupPolicies:   make(map[groupPolicyKey]struct{}, len(s.groupPolicies)),
	}
	for k, v := range s.users {
		n.users[k] = v
	}
	for k, v := range s.groups {
		n.groups[k] = v
	}
	for k, v := range s.policies {
		n.policies[k] = v
	}
	for k, v := range s.sessions {
		n.sessions[k] = v
	}
	for k, v := range s.sessionToken {
		n.sessionToken[k] = v
	}
	for k, v := range s.emailIndex {
		n.emailIndex[k] = v
	}
	for k, v := range s.groupNameIndex {
		n.groupNameIndex[k] = v
	}
	for k, v := range s.policyNameIndex {
		n.policyNameIndex[k] = v
	}
	for k := range s.memberships {
		n.memberships[k] = struct{}{}
	}
	for k := range s.userPolicies {
		n.userPolicies[k] = struct{}{}
	}
	for k := range s.groupPolicies {
		n.groupPolicies[k] = struct{}{}
	}
	return n
}

// Store is the in-memory reference implementation of storage.Store.
type Store struct {
	mu  sync.RWMutex
	cur *state
	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{cur: emptyState(), now: time.Now}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// commit installs next as the current snapshot. The whole operation is the
// unit of atomicity: fn must not perform I/O or touch the
// RNG, only read `read` (the snapshot captured at call time) and return the
// state to install.
func (s *Store) commit(fn func(read *state) (*state, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.cur)
	if err != nil {
		return err
	}
	s.cur = next
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- identifier resolution ---

func resolveUser(s *state, ident domain.UserIdentifier) (uuid.UUID, bool) {
	if ident.HasID() {
		if _, ok := s.users[ident.ID]; ok {
			return ident.ID, true
		}
		return uuid.UUID{}, false
	}
	if ident.HasEmail() {
		if id, ok := s.emailIndex[normalizeEmail(ident.Email)]; ok {
			return id, true
		}
	}
	return uuid.UUID{}, false
}

func resolveGroup(s *state, ident domain.GroupIdentifier) (uuid.UUID, bool) {
	if ident.HasID() {
		if _, ok := s.groups[ident.ID]; ok {
			return ident.ID, true
		}
		return uuid.UUID{}, false
	}
	if ident.HasName() {
		if id, ok := s.groupNameIndex[ident.Name]; ok {
			return id, true
		}
	}
	return uuid.UUID{}, false
}

func resolvePolicy(s *state, ident domain.PolicyIdentifier) (uuid.UUID, bool) {
	if ident.HasID() {
		if _, ok := s.policies[ident.ID]; ok {
			return ident.ID, true
		}
		return uuid.UUID{}, false
	}
	if ident.HasName() {
		if id, ok := s.policyNameIndex[ident.Name]; ok {
			return id, true
		}
	}
	return uuid.UUID{}, false
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, ident domain.UserIdentifier) (*domain.User, error) {
	cur := s.snapshot()
	id, ok := resolveUser(cur, ident)
	if !ok {
		return nil, domain.NewNotFound("user", ident.String())
	}
	return s.hydrateUser(cur, cur.users[id]), nil
}

func (s *Store) GetUserID(ctx context.Context, ident domain.UserIdentifier) (uuid.UUID, error) {
	cur := s.snapshot()
	id, ok := resolveUser(cur, ident)
	if !ok {
		return uuid.UUID{}, domain.NewNotFound("user", ident.String())
	}
	return id, nil
}

// hydrateUser returns a copy of u with Groups/Policies populated from the
// flat membership/attachment sets, which are the canonical source of
// truth (the fields on domain.User are a read-time convenience view).
func (s *Store) hydrateUser(cur *state, u *domain.User) *domain.User {
	c := u.Clone()
	for k := range cur.memberships {
		if k.UserID == u.ID {
			c.Groups[k.GroupID] = struct{}{}
		}
	}
	for k := range cur.userPolicies {
		if k.UserID == u.ID {
			c.Policies[k.PolicyID] = struct{}{}
		}
	}
	return c
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	cur := s.snapshot()
	all := make([]*domain.User, 0, len(cur.users))
	for _, u := range cur.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	page := paginate(all, offset, limit)
	out := make([]*domain.User, len(page))
	for i, u := range page {
		out[i] = s.hydrateUser(cur, u)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.commit(func(read *state) (*state, error) {
		if _, exists := read.users[user.ID]; exists {
			return nil, domain.ErrAlreadyExists
		}
		email := normalizeEmail(user.Email)
		if email != "" {
			if _, exists := read.emailIndex[email]; exists {
				return nil, domain.ErrAlreadyExists
			}
		}
		next := read.clone()
		stored := user.Clone()
		next.users[stored.ID] = stored
		if email != "" {
			next.emailIndex[email] = stored.ID
		}
		return next, nil
	})
}

func (s *Store) DeleteUser(ctx context.Context, ident domain.UserIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		id, ok := resolveUser(read, ident)
		if !ok {
			return nil, domain.NewNotFound("user", ident.String())
		}
		next := read.clone()
		u := next.users[id]
		delete(next.users, id)
		if email := normalizeEmail(u.Email); email != "" {
			delete(next.emailIndex, email)
		}
		for k := range next.memberships {
			if k.UserID == id {
				delete(next.memberships, k)
			}
		}
		for k := range next.userPolicies {
			if k.UserID == id {
				delete(next.userPolicies, k)
			}
		}
		// Sessions are intentionally left in place: lookups of a session
		// whose owner no longer exists are made to fail NotFound by
		// GetSessionByID/GetSessionByToken.
		return next, nil
	})
}

// --- groups ---

func (s *Store) GetGroup(ctx context.Context, ident domain.GroupIdentifier) (*domain.Group, error) {
	cur := s.snapshot()
	id, ok := resolveGroup(cur, ident)
	if !ok {
		return nil, domain.NewNotFound("group", ident.String())
	}
	return s.hydrateGroup(cur, cur.groups[id]), nil
}

func (s *Store) hydrateGroup(cur *state, g *domain.Group) *domain.Group {
	c := g.Clone()
	for k := range cur.memberships {
		if k.GroupID == g.ID {
			c.Users[k.UserID] = struct{}{}
		}
	}
	for k := range cur.groupPolicies {
		if k.GroupID == g.ID {
			c.Policies[k.PolicyID] = struct{}{}
		}
	}
	return c
}

func (s *Store) ListGroups(ctx context.Context, offset, limit int) ([]*domain.Group, error) {
	cur := s.snapshot()
	all := make([]*domain.Group, 0, len(cur.groups))
	for _, g := range cur.groups {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	page := paginate(all, offset, limit)
	out := make([]*domain.Group, len(page))
	for i, g := range page {
		out[i] = s.hydrateGroup(cur, g)
	}
	return out, nil
}

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	return s.commit(func(read *state) (*state, error) {
		if _, exists := read.groups[group.ID]; exists {
			return nil, domain.ErrAlreadyExists
		}
		if group.Name != "" {
			if _, exists := read.groupNameIndex[group.Name]; exists {
				return nil, domain.ErrAlreadyExists
			}
		}
		next := read.clone()
		stored := group.Clone()
		next.groups[stored.ID] = stored
		if stored.Name != "" {
			next.groupNameIndex[stored.Name] = stored.ID
		}
		return next, nil
	})
}

func (s *Store) DeleteGroup(ctx context.Context, ident domain.GroupIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		id, ok := resolveGroup(read, ident)
		if !ok {
			return nil, domain.NewNotFound("group", ident.String())
		}
		next := read.clone()
		g := next.groups[id]
		delete(next.groups, id)
		if g.Name != "" {
			delete(next.groupNameIndex, g.Name)
		}
		for k := range next.memberships {
			if k.GroupID == id {
				delete(next.memberships, k)
			}
		}
		for k := range next.groupPolicies {
			if k.GroupID == id {
				delete(next.groupPolicies, k)
			}
		}
		return next, nil
	})
}

// --- policies ---

func (s *Store) GetPolicy(ctx context.Context, ident domain.PolicyIdentifier) (*domain.Policy, error) {
	cur := s.snapshot()
	id, ok := resolvePolicy(cur, ident)
	if !ok {
		return nil, domain.NewNotFound("policy", ident.String())
	}
	return cur.policies[id].Clone(), nil
}

func (s *Store) ListPolicyIDs(ctx context.Context, offset, limit int) ([]uuid.UUID, error) {
	cur := s.snapshot()
	all := make([]*domain.Policy, 0, len(cur.policies))
	for _, p := range cur.policies {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	page := paginate(all, offset, limit)
	out := make([]uuid.UUID, len(page))
	for i, p := range page {
		out[i] = p.ID
	}
	return out, nil
}

func (s *Store) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	return s.commit(func(read *state) (*state, error) {
		if _, exists := read.policies[p.ID]; exists {
			return nil, domain.ErrAlreadyExists
		}
		if p.Name != "" {
			if _, exists := read.policyNameIndex[p.Name]; exists {
				return nil, domain.ErrAlreadyExists
			}
		}
		next := read.clone()
		stored := p.Clone()
		next.policies[stored.ID] = stored
		if stored.Name != "" {
			next.policyNameIndex[stored.Name] = stored.ID
		}
		return next, nil
	})
}

func (s *Store) UpdatePolicy(ctx context.Context, p *domain.Policy) error {
	return s.commit(func(read *state) (*state, error) {
		existing, exists := read.policies[p.ID]
		if !exists {
			return nil, domain.NewNotFound("policy", p.ID.String())
		}
		next := read.clone()
		stored := p.Clone()
		stored.UpdatedAt = time.Now().UTC()
		next.policies[stored.ID] = stored
		if existing.Name != stored.Name {
			if existing.Name != "" {
				delete(next.policyNameIndex, existing.Name)
			}
			if stored.Name != "" {
				if _, taken := next.policyNameIndex[stored.Name]; taken {
					return nil, domain.ErrAlreadyExists
				}
				next.policyNameIndex[stored.Name] = stored.ID
			}
		}
		return next, nil
	})
}

func (s *Store) DeletePolicy(ctx context.Context, ident domain.PolicyIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		id, ok := resolvePolicy(read, ident)
		if !ok {
			return nil, domain.NewNotFound("policy", ident.String())
		}
		next := read.clone()
		p := next.policies[id]
		delete(next.policies, id)
		if p.Name != "" {
			delete(next.policyNameIndex, p.Name)
		}
		for k := range next.userPolicies {
			if k.PolicyID == id {
				delete(next.userPolicies, k)
			}
		}
		for k := range next.groupPolicies {
			if k.PolicyID == id {
				delete(next.groupPolicies, k)
			}
		}
		return next, nil
	})
}

func (s *Store) ListPoliciesForUser(ctx context.Context, uid uuid.UUID, host string) ([]*domain.Policy, error) {
	cur := s.snapshot()
	seen := make(map[uuid.UUID]struct{})
	var out []*domain.Policy

	addIfMatches := func(pid uuid.UUID) {
		if _, already := seen[pid]; already {
			return
		}
		p, ok := cur.policies[pid]
		if !ok || p.Hostname != host {
			return
		}
		seen[pid] = struct{}{}
		out = append(out, p.Clone())
	}

	for k := range cur.userPolicies {
		if k.UserID == uid {
			addIfMatches(k.PolicyID)
		}
	}
	for mk := range cur.memberships {
		if mk.UserID != uid {
			continue
		}
		for gpk := range cur.groupPolicies {
			if gpk.GroupID == mk.GroupID {
				addIfMatches(gpk.PolicyID)
			}
		}
	}
	return out, nil
}

// --- memberships ---

func (s *Store) CreateMembership(ctx context.Context, uident domain.UserIdentifier, gident domain.GroupIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		uid, ok := resolveUser(read, uident)
		if !ok {
			return nil, domain.NewNotFound("user", uident.String())
		}
		gid, ok := resolveGroup(read, gident)
		if !ok {
			return nil, domain.NewNotFound("group", gident.String())
		}
		key := membershipKey{UserID: uid, GroupID: gid}
		if _, exists := read.memberships[key]; exists {
			return nil, domain.ErrAlreadyExists
		}
		next := read.clone()
		next.memberships[key] = struct{}{}
		return next, nil
	})
}

func (s *Store) DeleteMembership(ctx context.Context, uident domain.UserIdentifier, gident domain.GroupIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		uid, ok := resolveUser(read, uident)
		if !ok {
			return nil, domain.NewNotFound("user", uident.String())
		}
		gid, ok := resolveGroup(read, gident)
		if !ok {
			return nil, domain.NewNotFound("group", gident.String())
		}
		key := membershipKey{UserID: uid, GroupID: gid}
		if _, exists := read.memberships[key]; !exists {
			return nil, domain.NewNotFound("membership", key.UserID.String()+"/"+key.GroupID.String())
		}
		next := read.clone()
		delete(next.memberships, key)
		return next, nil
	})
}

// --- attachments ---

func (s *Store) CreateUserPolicyAttachment(ctx context.Context, uident domain.UserIdentifier, pident domain.PolicyIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		uid, ok := resolveUser(read, uident)
		if !ok {
			return nil, domain.NewNotFound("user", uident.String())
		}
		pid, ok := resolvePolicy(read, pident)
		if !ok {
			return nil, domain.NewNotFound("policy", pident.String())
		}
		key := userPolicyKey{UserID: uid, PolicyID: pid}
		if _, exists := read.userPolicies[key]; exists {
			return nil, domain.ErrAlreadyExists
		}
		next := read.clone()
		next.userPolicies[key] = struct{}{}
		return next, nil
	})
}

func (s *Store) DeleteUserPolicyAttachment(ctx context.Context, uident domain.UserIdentifier, pident domain.PolicyIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		uid, ok := resolveUser(read, uident)
		if !ok {
			return nil, domain.NewNotFound("user", uident.String())
		}
		pid, ok := resolvePolicy(read, pident)
		if !ok {
			return nil, domain.NewNotFound("policy", pident.String())
		}
		key := userPolicyKey{UserID: uid, PolicyID: pid}
		if _, exists := read.userPolicies[key]; !exists {
			return nil, domain.NewNotFound("attachment", key.UserID.String()+"/"+key.PolicyID.String())
		}
		next := read.clone()
		delete(next.userPolicies, key)
		return next, nil
	})
}

func (s *Store) CreateGroupPolicyAttachment(ctx context.Context, gident domain.GroupIdentifier, pident domain.PolicyIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		gid, ok := resolveGroup(read, gident)
		if !ok {
			return nil, domain.NewNotFound("group", gident.String())
		}
		pid, ok := resolvePolicy(read, pident)
		if !ok {
			return nil, domain.NewNotFound("policy", pident.String())
		}
		key := groupPolicyKey{GroupID: gid, PolicyID: pid}
		if _, exists := read.groupPolicies[key]; exists {
			return nil, domain.ErrAlreadyExists
		}
		next := read.clone()
		next.groupPolicies[key] = struct{}{}
		return next, nil
	})
}

func (s *Store) DeleteGroupPolicyAttachment(ctx context.Context, gident domain.GroupIdentifier, pident domain.PolicyIdentifier) error {
	return s.commit(func(read *state) (*state, error) {
		gid, ok := resolveGroup(read, gident)
		if !ok {
			return nil, domain.NewNotFound("group", gident.String())
		}
		pid, ok := resolvePolicy(read, pident)
		if !ok {
			return nil, domain.NewNotFound("policy", pident.String())
		}
		key := groupPolicyKey{GroupID: gid, PolicyID: pid}
		if _, exists := read.groupPolicies[key]; !exists {
			return nil, domain.NewNotFound("attachment", key.GroupID.String()+"/"+key.PolicyID.String())
		}
		next := read.clone()
		delete(next.groupPolicies, key)
		return next, nil
	})
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.commit(func(read *state) (*state, error) {
		if _, exists := read.users[session.User]; !exists {
			return nil, domain.NewNotFound("user", session.User.String())
		}
		if _, exists := read.sessionToken[session.Token]; exists {
			return nil, domain.ErrInternal
		}
		next := read.clone()
		stored := session.Clone()
		next.sessions[stored.ID] = stored
		next.sessionToken[stored.Token] = stored.ID
		return next, nil
	})
}

// lookupSession finds a session by id and enforces the owner and liveness
// checks common to both GetSessionByID and GetSessionByToken.
func (s *Store) lookupSession(cur *state, uid, sid uuid.UUID) (*domain.Session, error) {
	sess, ok := cur.sessions[sid]
	if !ok || sess.User != uid {
		return nil, domain.NewNotFound("session", sid.String())
	}
	if _, userExists := cur.users[sess.User]; !userExists {
		return nil, domain.NewNotFound("session", sid.String())
	}
	if sess.Expired(s.now()) {
		return nil, domain.NewNotFound("session", sid.String())
	}
	return sess.Clone(), nil
}

func (s *Store) GetSessionByID(ctx context.Context, uid, sid uuid.UUID) (*domain.Session, error) {
	cur := s.snapshot()
	return s.lookupSession(cur, uid, sid)
}

func (s *Store) GetSessionByToken(ctx context.Context, uid uuid.UUID, token string) (*domain.Session, error) {
	cur := s.snapshot()
	sid, ok := cur.sessionToken[token]
	if !ok {
		return nil, domain.NewNotFound("session", "")
	}
	return s.lookupSession(cur, uid, sid)
}

func (s *Store) RefreshSession(ctx context.Context, uid, sid uuid.UUID, expiresAt time.Time) (*domain.Session, error) {
	var refreshed *domain.Session
	err := s.commit(func(read *state) (*state, error) {
		sess, ok := read.sessions[sid]
		if !ok || sess.User != uid {
			return nil, domain.NewNotFound("session", sid.String())
		}
		if _, userExists := read.users[sess.User]; !userExists {
			return nil, domain.NewNotFound("session", sid.String())
		}
		next := read.clone()
		stored := sess.Clone()
		stored.ExpiresAt = expiresAt
		next.sessions[sid] = stored
		refreshed = stored.Clone()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

func (s *Store) DeleteSession(ctx context.Context, uid, sid uuid.UUID) error {
	return s.commit(func(read *state) (*state, error) {
		sess, ok := read.sessions[sid]
		if !ok || sess.User != uid {
			return nil, domain.NewNotFound("session", sid.String())
		}
		next := read.clone()
		delete(next.sessions, sid)
		delete(next.sessionToken, sess.Token)
		return next, nil
	})
}

func (s *Store) ListUserSessions(ctx context.Context, uid uuid.UUID, offset, limit int) ([]*domain.Session, error) {
	cur := s.snapshot()
	now := s.now()
	all := make([]*domain.Session, 0)
	for _, sess := range cur.sessions {
		if sess.User == uid && !sess.Expired(now) {
			all = append(all, sess)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	page := paginate(all, offset, limit)
	out := make([]*domain.Session, len(page))
	for i, sess := range page {
		out[i] = sess.Clone()
	}
	return out, nil
}

// paginate applies an offset/limit window; limit <= 0 means unbounded.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
