package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/policy"
)

func rule(effect domain.Effect, action domain.Action, resource string) domain.Rule {
	return domain.Rule{Effect: effect, Action: action, Resource: resource}
}

func TestEvaluate_DefaultDeny(t *testing.T) {
	d := policy.Evaluate(nil, domain.ActionRead, "/users")
	require.False(t, d.Allowed)
}

func TestEvaluate_AllowMatchesPrefix(t *testing.T) {
	p := &domain.Policy{Rules: []domain.Rule{rule(domain.EffectAllow, domain.ActionRead, "/users/*")}}
	d := policy.Evaluate([]*domain.Policy{p}, domain.ActionRead, "/users/123")
	require.True(t, d.Allowed)
}

func TestEvaluate_ExactMatchRequired(t *testing.T) {
	p := &domain.Policy{Rules: []domain.Rule{rule(domain.EffectAllow, domain.ActionRead, "/users")}}
	d := policy.Evaluate([]*domain.Policy{p}, domain.ActionRead, "/users/123")
	require.False(t, d.Allowed)
}

func TestEvaluate_DenyOverridesAllow(t *testing.T) {
	policies := []*domain.Policy{
		{Rules: []domain.Rule{rule(domain.EffectAllow, domain.ActionRead, "/*")}},
		{Rules: []domain.Rule{rule(domain.EffectDeny, domain.ActionRead, "/users/secret")}},
	}
	deny := policy.Evaluate(policies, domain.ActionRead, "/users/secret")
	require.False(t, deny.Allowed)

	allow := policy.Evaluate(policies, domain.ActionRead, "/users/other")
	require.True(t, allow.Allowed)
}

func TestEvaluate_WrongActionDoesNotMatch(t *testing.T) {
	p := &domain.Policy{Rules: []domain.Rule{rule(domain.EffectAllow, domain.ActionRead, "/users/*")}}
	d := policy.Evaluate([]*domain.Policy{p}, domain.ActionWrite, "/users/123")
	require.False(t, d.Allowed)
}

// TestEvaluate_MonotoneInDenies checks the property: adding a Deny
// rule matching the request never flips a decision from deny to allow.
func TestEvaluate_MonotoneInDenies(t *testing.T) {
	base := []*domain.Policy{
		{Rules: []domain.Rule{rule(domain.EffectAllow, domain.ActionRead, "/users/*")}},
	}
	before := policy.Evaluate(base, domain.ActionRead, "/users/123")
	require.True(t, before.Allowed)

	withDeny := append(append([]*domain.Policy{}, base...), &domain.Policy{
		Rules: []domain.Rule{rule(domain.EffectDeny, domain.ActionRead, "/users/123")},
	})
	after := policy.Evaluate(withDeny, domain.ActionRead, "/users/123")
	require.False(t, after.Allowed)
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	a := rule(domain.EffectAllow, domain.ActionRead, "/*")
	b := rule(domain.EffectDeny, domain.ActionRead, "/secret")

	p1 := []*domain.Policy{{Rules: []domain.Rule{a, b}}}
	p2 := []*domain.Policy{{Rules: []domain.Rule{b, a}}}

	require.Equal(t, policy.Evaluate(p1, domain.ActionRead, "/secret").Allowed,
		policy.Evaluate(p2, domain.ActionRead, "/secret").Allowed)
}

func TestActionForMethod(t *testing.T) {
	require.Equal(t, domain.ActionRead, domain.ActionForMethod("GET"))
	require.Equal(t, domain.ActionRead, domain.ActionForMethod("HEAD"))
	require.Equal(t, domain.ActionWrite, domain.ActionForMethod("POST"))
	require.Equal(t, domain.ActionWrite, domain.ActionForMethod("DELETE"))
	require.Equal(t, domain.ActionWrite, domain.ActionForMethod("PUT"))
}
