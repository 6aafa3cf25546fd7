package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func testUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(email, []domain.UserPublicKey{{Key: [32]byte{9}, Description: "test"}})
	require.NoError(t, err)
	return u
}

func TestStore_CreateAndGetUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := testUser(t, "alice@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	byID, err := s.GetUser(ctx, domain.UserID(u.ID))
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := s.GetUser(ctx, domain.UserEmail("Alice@Example.com"))
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser(t, "bob@example.com")))
	err := s.CreateUser(ctx, testUser(t, "bob@example.com"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetUser(context.Background(), domain.UserID(uuid.New()))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MembershipAndPolicyAggregation(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := testUser(t, "carol@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	g, err := domain.NewGroup("engineers")
	require.NoError(t, err)
	require.NoError(t, s.CreateGroup(ctx, g))

	directPolicy, err := domain.NewPolicy("direct", "api.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/a"},
	})
	require.NoError(t, err)
	require.NoError(t, s.CreatePolicy(ctx, directPolicy))

	groupPolicy, err := domain.NewPolicy("via-group", "api.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/b"},
	})
	require.NoError(t, err)
	require.NoError(t, s.CreatePolicy(ctx, groupPolicy))

	otherHostPolicy, err := domain.NewPolicy("other-host", "other.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/c"},
	})
	require.NoError(t, err)
	require.NoError(t, s.CreatePolicy(ctx, otherHostPolicy))

	require.NoError(t, s.CreateMembership(ctx, domain.UserID(u.ID), domain.GroupID(g.ID)))
	require.NoError(t, s.CreateUserPolicyAttachment(ctx, domain.UserID(u.ID), domain.PolicyID(directPolicy.ID)))
	require.NoError(t, s.CreateGroupPolicyAttachment(ctx, domain.GroupID(g.ID), domain.PolicyID(groupPolicy.ID)))
	require.NoError(t, s.CreateGroupPolicyAttachment(ctx, domain.GroupID(g.ID), domain.PolicyID(otherHostPolicy.ID)))

	policies, err := s.ListPoliciesForUser(ctx, u.ID, "api.example.com")
	require.NoError(t, err)
	ids := make(map[uuid.UUID]struct{}, len(policies))
	for _, p := range policies {
		ids[p.ID] = struct{}{}
	}
	require.Contains(t, ids, directPolicy.ID)
	require.Contains(t, ids, groupPolicy.ID)
	require.NotContains(t, ids, otherHostPolicy.ID)
}

func TestStore_DeleteUser_DropsMembershipsButKeepsSessionLookupFailingClosed(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := testUser(t, "dana@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	g, err := domain.NewGroup("ops")
	require.NoError(t, err)
	require.NoError(t, s.CreateGroup(ctx, g))
	require.NoError(t, s.CreateMembership(ctx, domain.UserID(u.ID), domain.GroupID(g.ID)))

	sess := &domain.Session{
		ID:        uuid.New(),
		User:      u.ID,
		Token:     "tok",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	require.NoError(t, s.DeleteUser(ctx, domain.UserID(u.ID)))

	group, err := s.GetGroup(ctx, domain.GroupID(g.ID))
	require.NoError(t, err)
	require.NotContains(t, group.Users, u.ID)

	_, err = s.GetSessionByID(ctx, u.ID, sess.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SessionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := testUser(t, "erin@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	sess := &domain.Session{
		ID:        uuid.New(),
		User:      u.ID,
		Token:     "opaque",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	byToken, err := s.GetSessionByToken(ctx, u.ID, "opaque")
	require.NoError(t, err)
	require.Equal(t, sess.ID, byToken.ID)

	// A different user's lookup of the same session fails NotFound, not a
	// distinguishable "forbidden".
	_, err = s.GetSessionByID(ctx, uuid.New(), sess.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	newExpiry := time.Now().UTC().Add(2 * time.Hour)
	refreshed, err := s.RefreshSession(ctx, u.ID, sess.ID, newExpiry)
	require.NoError(t, err)
	require.WithinDuration(t, newExpiry, refreshed.ExpiresAt, time.Second)

	require.NoError(t, s.DeleteSession(ctx, u.ID, sess.ID))
	_, err = s.GetSessionByID(ctx, u.ID, sess.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SessionExpired_IsNotFound(t *testing.T) {
	s := New()
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	u := testUser(t, "frank@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	sess := &domain.Session{
		ID:        uuid.New(),
		User:      u.ID,
		Token:     "stale",
		CreatedAt: fixed.Add(-time.Hour),
		ExpiresAt: fixed.Add(-time.Minute),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.GetSessionByID(ctx, u.ID, sess.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	sessions, err := s.ListUserSessions(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestStore_ListUsers_Pagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		u, err := domain.NewUser("", []domain.UserPublicKey{{Key: [32]byte{byte(i)}, Description: "k"}})
		require.NoError(t, err)
		require.NoError(t, s.CreateUser(ctx, u))
	}

	page, err := s.ListUsers(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := s.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, rest, 3)

	none, err := s.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStore_DeletePolicy_RemovesAttachments(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := testUser(t, "gina@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	p, err := domain.NewPolicy("temp", "api.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/x"},
	})
	require.NoError(t, err)
	require.NoError(t, s.CreatePolicy(ctx, p))
	require.NoError(t, s.CreateUserPolicyAttachment(ctx, domain.UserID(u.ID), domain.PolicyID(p.ID)))

	require.NoError(t, s.DeletePolicy(ctx, domain.PolicyID(p.ID)))

	policies, err := s.ListPoliciesForUser(ctx, u.ID, "api.example.com")
	require.NoError(t, err)
	require.Empty(t, policies)
}
