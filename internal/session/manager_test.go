package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/session"
	"github.com/mtaylorio/iam-server/internal/storage/memory"
)

func newTestUser(t *testing.T, store *memory.Store) uuid.UUID {
	t.Helper()
	u, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID
}

func TestManager_CreateAndAuthenticate(t *testing.T) {
	store := memory.New()
	uid := newTestUser(t, store)
	mgr := session.NewManager(store, time.Hour)

	sess, err := mgr.Create(context.Background(), uid)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, uid, sess.User)

	got, err := mgr.Authenticate(context.Background(), uid, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
}

func TestManager_AuthenticateWrongUserFails(t *testing.T) {
	store := memory.New()
	uid := newTestUser(t, store)
	other, err := domain.NewUser("bob@example.com", []domain.UserPublicKey{{Description: "phone"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), other))

	mgr := session.NewManager(store, time.Hour)
	sess, err := mgr.Create(context.Background(), uid)
	require.NoError(t, err)

	_, err = mgr.Authenticate(context.Background(), other.ID, sess.Token)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_Refresh(t *testing.T) {
	store := memory.New()
	uid := newTestUser(t, store)
	mgr := session.NewManager(store, time.Hour)

	sess, err := mgr.Create(context.Background(), uid)
	require.NoError(t, err)

	refreshed, err := mgr.Refresh(context.Background(), uid, sess.ID)
	require.NoError(t, err)
	require.True(t, refreshed.ExpiresAt.After(sess.ExpiresAt) || refreshed.ExpiresAt.Equal(sess.ExpiresAt))
}

func TestManager_Revoke(t *testing.T) {
	store := memory.New()
	uid := newTestUser(t, store)
	mgr := session.NewManager(store, time.Hour)

	sess, err := mgr.Create(context.Background(), uid)
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(context.Background(), uid, sess.ID))

	_, err = mgr.Authenticate(context.Background(), uid, sess.Token)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
