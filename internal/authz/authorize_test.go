package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/authz"
	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/storage/memory"
)

func TestAuthorize_AllowedByDirectPolicy(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	p, err := domain.NewPolicy("read-users", "iam.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/users/*"},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreatePolicy(ctx, p))
	require.NoError(t, store.CreateUserPolicyAttachment(ctx, domain.UserID(user.ID), domain.PolicyID(p.ID)))

	az := &authz.Authorizer{Store: store}
	auth, err := az.Authorize(ctx, user, "", "iam.example.com", "GET", "/users/123")
	require.NoError(t, err)
	require.True(t, auth.Decision.Allowed)
}

func TestAuthorize_DefaultDenyFails(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	az := &authz.Authorizer{Store: store}
	_, err = az.Authorize(ctx, user, "", "iam.example.com", "GET", "/users/123")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestAuthorize_GroupTransitivePolicy(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	group, err := domain.NewGroup("engineers")
	require.NoError(t, err)
	require.NoError(t, store.CreateGroup(ctx, group))
	require.NoError(t, store.CreateMembership(ctx, domain.UserID(user.ID), domain.GroupID(group.ID)))

	p, err := domain.NewPolicy("write-users", "iam.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionWrite, Resource: "/users/*"},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreatePolicy(ctx, p))
	require.NoError(t, store.CreateGroupPolicyAttachment(ctx, domain.GroupID(group.ID), domain.PolicyID(p.ID)))

	az := &authz.Authorizer{Store: store}
	auth, err := az.Authorize(ctx, user, "", "iam.example.com", "POST", "/users/123")
	require.NoError(t, err)
	require.True(t, auth.Decision.Allowed)
}

func TestAuthorize_WrongHostPolicyDoesNotApply(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	p, err := domain.NewPolicy("read-users", "other.example.com", []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/users/*"},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreatePolicy(ctx, p))
	require.NoError(t, store.CreateUserPolicyAttachment(ctx, domain.UserID(user.ID), domain.PolicyID(p.ID)))

	az := &authz.Authorizer{Store: store}
	_, err = az.Authorize(ctx, user, "", "iam.example.com", "GET", "/users/123")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestAuthorize_SessionTokenNotOwnedFails(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	az := &authz.Authorizer{Store: store}
	_, err = az.Authorize(ctx, user, "not-a-real-token", "iam.example.com", "GET", "/users/123")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
