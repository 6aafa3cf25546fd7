package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/domain"
)

// These are integration tests: they require a reachable Postgres and are
// skipped otherwise, so `go test ./...` stays fast without one.

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("IAM_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("integration test skipped: IAM_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("integration test skipped: postgres unreachable: %v", err)
	}
	return pool
}

// resetSchema drops and recreates every table the store touches, so each
// test starts from a clean database.
func resetSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		DROP TABLE IF EXISTS sessions, group_policy_attachments,
			user_policy_attachments, memberships, policies, groups, users CASCADE
	`)
	require.NoError(t, err)

	schema, err := os.ReadFile("schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	pool := mustOpenTestPool(t)
	t.Cleanup(pool.Close)
	resetSchema(t, pool)
	return &Store{pool: pool}
}

func testUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(email, []domain.UserPublicKey{{Key: [32]byte{1, 2, 3}, Description: "test"}})
	require.NoError(t, err)
	return u
}

func TestStore_CreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser(t, "alice@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	byID, err := s.GetUser(ctx, domain.UserID(u.ID))
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	byEmail, err := s.GetUser(ctx, domain.UserEmail("alice@example.com"))
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser(t, "bob@example.com")))
	err := s.CreateUser(ctx, testUser(t, "bob@example.com"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_DeleteUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteUser(context.Background(), domain.UserID(uuid.New()))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MembershipAndPolicyAggregation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser(t, "carol@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	g, err := domain.NewGroup("engineers")
	require.NoError(t, err)
	require.NoError(t, s.CreateGroup(ctx, g))

	p, err := domain.NewPolicy("readonly", "api.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/widgets/*"},
	})
	require.NoError(t, err)
	require.NoError(t, s.CreatePolicy(ctx, p))

	require.NoError(t, s.CreateMembership(ctx, domain.UserID(u.ID), domain.GroupID(g.ID)))
	require.NoError(t, s.CreateGroupPolicyAttachment(ctx, domain.GroupID(g.ID), domain.PolicyID(p.ID)))

	policies, err := s.ListPoliciesForUser(ctx, u.ID, "api.example.com")
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, p.ID, policies[0].ID)

	// Different hostname: no match.
	policies, err = s.ListPoliciesForUser(ctx, u.ID, "other.example.com")
	require.NoError(t, err)
	require.Empty(t, policies)
}

func TestStore_SessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser(t, "dana@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	sess := &domain.Session{
		ID:        uuid.New(),
		User:      u.ID,
		Token:     "opaque-token-value",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	byID, err := s.GetSessionByID(ctx, u.ID, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.Token, byID.Token)

	byToken, err := s.GetSessionByToken(ctx, u.ID, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, byToken.ID)

	// A different user's lookup of the same session id fails NotFound, not
	// some distinguishable "forbidden".
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
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser(t, "erin@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	sess := &domain.Session{
		ID:        uuid.New(),
		User:      u.ID,
		Token:     "already-expired",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.GetSessionByID(ctx, u.ID, sess.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
