package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Effect is the outcome a Rule contributes to a decision.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// Action is derived from the HTTP method of a request: GET and
// HEAD are Read, everything else is Write.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

func (a Action) Valid() bool {
	return a == ActionRead || a == ActionWrite
}

// ActionForMethod maps an HTTP method to the Action it implies.
func ActionForMethod(method string) Action {
	switch strings.ToUpper(method) {
	case "GET", "HEAD":
		return ActionRead
	default:
		return ActionWrite
	}
}

// Rule is one line of a policy: it matches a request iff the request's
// action equals Action and the request's resource matches Resource.
// Resource supports a single trailing '*' as a prefix wildcard; anything
// else is an exact match.
type Rule struct {
	Effect   Effect
	Action   Action
	Resource string
}

// Matches reports whether the rule applies to the given action/resource
// pair, per the rule's pattern semantics.
func (r Rule) Matches(action Action, resource string) bool {
	if r.Action != action {
		return false
	}
	if strings.HasSuffix(r.Resource, "*") {
		prefix := strings.TrimSuffix(r.Resource, "*")
		return strings.HasPrefix(resource, prefix)
	}
	return r.Resource == resource
}

func (r Rule) Validate() error {
	var errs ValidationErrors
	if !r.Effect.Valid() {
		errs = append(errs, ValidationError{Field: "effect", Message: "must be allow or deny"})
	}
	if !r.Action.Valid() {
		errs = append(errs, ValidationError{Field: "action", Message: "must be read or write"})
	}
	if r.Resource == "" {
		errs = append(errs, ValidationError{Field: "resource", Message: "required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Policy is a named, hostname-scoped list of rules. A policy
// applies only to requests whose Host header (port stripped) is
// byte-equal to Hostname — no wildcard hostnames.
type Policy struct {
	ID        uuid.UUID
	Name      string
	Hostname  string
	Rules     []Rule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPolicy constructs a validated Policy.
func NewPolicy(name, hostname string, rules []Rule) (*Policy, error) {
	now := time.Now().UTC()
	p := &Policy{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Hostname:  strings.TrimSpace(hostname),
		Rules:     append([]Rule(nil), rules...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) Validate() error {
	var errs ValidationErrors
	if p.Hostname == "" {
		errs = append(errs, ValidationError{Field: "hostname", Message: "required"})
	}
	for i, r := range p.Rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, ValidationError{Field: "rules", Message: ruleErrSuffix(i, err)})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func ruleErrSuffix(i int, err error) string {
	return "rule " + strconv.Itoa(i) + ": " + err.Error()
}

// Clone returns a deep-enough copy of p for installing into a new
// immutable storage snapshot.
func (p *Policy) Clone() *Policy {
	c := *p
	c.Rules = append([]Rule(nil), p.Rules...)
	return &c
}
