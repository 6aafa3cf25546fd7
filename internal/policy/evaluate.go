// Package policy implements the pure authorization decision function: it
// maps a (action, resource, rule-set) triple to allow/deny and nothing
// else. It has no knowledge of storage, sessions, or HTTP.
package policy

import "github.com/mtaylorio/iam-server/internal/domain"

// Decision is the outcome of evaluating a rule-set against a request.
type Decision struct {
	Allowed bool
	// MatchedRules holds every rule that matched the request, in no
	// particular order, for callers that want to explain a decision (e.g.
	// structured logs). Ordering of policies never affects Allowed.
	MatchedRules []domain.Rule
}

// Evaluate flattens rules across all applicable policies and applies the
// deny-over-allow, default-deny decision procedure:
//
//   - any matching Deny rule  -> deny
//   - else any matching Allow rule -> allow
//   - else -> deny (default-deny)
func Evaluate(policies []*domain.Policy, action domain.Action, resource string) Decision {
	var matched []domain.Rule
	sawAllow := false
	sawDeny := false

	for _, p := range policies {
		for _, r := range p.Rules {
			if !r.Matches(action, resource) {
				continue
			}
			matched = append(matched, r)
			switch r.Effect {
			case domain.EffectDeny:
				sawDeny = true
			case domain.EffectAllow:
				sawAllow = true
			}
		}
	}

	return Decision{
		Allowed:      sawAllow && !sawDeny,
		MatchedRules: matched,
	}
}
