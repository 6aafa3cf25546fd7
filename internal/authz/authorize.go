// Package authz implements the authorization handler: given
// an authenticated user and an optional session token, it aggregates the
// applicable policy set and evaluates it against the request's (method,
// path).
package authz

import (
	"context"
	"net/http"

	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/policy"
	"github.com/mtaylorio/iam-server/internal/storage"
)

// Auth is the combined authentication+authorization context handed to
// business handlers.
type Auth struct {
	User     *domain.User
	Session  *domain.Session
	Policies []*domain.Policy
	Decision policy.Decision
}

// Authorizer implements the authorization procedure against a storage.Store.
type Authorizer struct {
	Store storage.Store
}

// Authorize runs the authorization handler for an already-authenticated
// user: it optionally resolves the session token, loads the user's
// aggregated policy set for host, and evaluates it against (method,
// resource). It fails NotAuthorized if the decision denies the request,
// and NotFound if a presented session token does not resolve to one of
// the user's own sessions.
func (a *Authorizer) Authorize(ctx context.Context, user *domain.User, sessionToken, host, method, resource string) (*Auth, error) {
	var sess *domain.Session
	if sessionToken != "" {
		var err error
		sess, err = a.Store.GetSessionByToken(ctx, user.ID, sessionToken)
		if err != nil {
			return nil, err
		}
	}

	policies, err := a.Store.ListPoliciesForUser(ctx, user.ID, host)
	if err != nil {
		return nil, err
	}

	action := domain.ActionForMethod(method)
	decision := policy.Evaluate(policies, action, resource)
	if !decision.Allowed {
		return nil, domain.ErrNotAuthorized
	}

	return &Auth{User: user, Session: sess, Policies: policies, Decision: decision}, nil
}

// ResourceForRequest derives the resource string the policy evaluator
// matches against: the request's raw URL path.
func ResourceForRequest(r *http.Request) string {
	return r.URL.EscapedPath()
}
