package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Group is a named collection of users, itself governed by policies.
// Aliased by Name.
type Group struct {
	ID        uuid.UUID
	Name      string
	Users     map[uuid.UUID]struct{}
	Policies  map[uuid.UUID]struct{}
	CreatedAt time.Time
}

// NewGroup constructs a Group with its name trimmed. It performs no
// validation: the name may be empty and the error is always nil.
func NewGroup(name string) (*Group, error) {
	g := &Group{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Users:     make(map[uuid.UUID]struct{}),
		Policies:  make(map[uuid.UUID]struct{}),
		CreatedAt: time.Now().UTC(),
	}
	return g, nil
}

// Clone returns a deep-enough copy of g for installing into a new
// immutable storage snapshot.
func (g *Group) Clone() *Group {
	c := *g
	c.Users = make(map[uuid.UUID]struct{}, len(g.Users))
	for u := range g.Users {
		c.Users[u] = struct{}{}
	}
	c.Policies = make(map[uuid.UUID]struct{}, len(g.Policies))
	for p := range g.Policies {
		c.Policies[p] = struct{}{}
	}
	return &c
}
