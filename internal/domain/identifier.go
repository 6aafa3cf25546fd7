package domain

import "github.com/google/uuid"

// UserIdentifier is one of UserId(uuid), UserEmail(text), or
// UserIdAndEmail(uuid, text). The zero value is invalid; use
// the constructors below.
type UserIdentifier struct {
	ID    uuid.UUID
	Email string

	hasID    bool
	hasEmail bool
}

func UserID(id uuid.UUID) UserIdentifier {
	return UserIdentifier{ID: id, hasID: true}
}

func UserEmail(email string) UserIdentifier {
	return UserIdentifier{Email: email, hasEmail: true}
}

func UserIDAndEmail(id uuid.UUID, email string) UserIdentifier {
	return UserIdentifier{ID: id, Email: email, hasID: true, hasEmail: true}
}

// HasID reports whether the identifier carries a UUID, which
// is authoritative when present.
func (u UserIdentifier) HasID() bool { return u.hasID }

// HasEmail reports whether the identifier carries an email alias.
func (u UserIdentifier) HasEmail() bool { return u.hasEmail }

func (u UserIdentifier) String() string {
	switch {
	case u.hasID && u.hasEmail:
		return u.ID.String() + " (" + u.Email + ")"
	case u.hasID:
		return u.ID.String()
	default:
		return u.Email
	}
}

// ParseUserIdentifier interprets a path segment as a UserIdentifier: if it
// parses as a UUID it is authoritative, otherwise it is treated as an email
// alias. The reference performs no syntactic
// email validation.
func ParseUserIdentifier(s string) UserIdentifier {
	if id, err := uuid.Parse(s); err == nil {
		return UserID(id)
	}
	return UserEmail(s)
}

// GroupIdentifier is one of GroupId(uuid), GroupName(text), or
// GroupIdAndName(uuid, text).
type GroupIdentifier struct {
	ID   uuid.UUID
	Name string

	hasID   bool
	hasName bool
}

func GroupID(id uuid.UUID) GroupIdentifier {
	return GroupIdentifier{ID: id, hasID: true}
}

func GroupName(name string) GroupIdentifier {
	return GroupIdentifier{Name: name, hasName: true}
}

func GroupIDAndName(id uuid.UUID, name string) GroupIdentifier {
	return GroupIdentifier{ID: id, Name: name, hasID: true, hasName: true}
}

func (g GroupIdentifier) HasID() bool   { return g.hasID }
func (g GroupIdentifier) HasName() bool { return g.hasName }

func (g GroupIdentifier) String() string {
	switch {
	case g.hasID && g.hasName:
		return g.ID.String() + " (" + g.Name + ")"
	case g.hasID:
		return g.ID.String()
	default:
		return g.Name
	}
}

func ParseGroupIdentifier(s string) GroupIdentifier {
	if id, err := uuid.Parse(s); err == nil {
		return GroupID(id)
	}
	return GroupName(s)
}

// PolicyIdentifier is one of PolicyId(uuid), PolicyName(text), or
// PolicyIdAndName(uuid, text).
type PolicyIdentifier struct {
	ID   uuid.UUID
	Name string

	hasID   bool
	hasName bool
}

func PolicyID(id uuid.UUID) PolicyIdentifier {
	return PolicyIdentifier{ID: id, hasID: true}
}

func PolicyName(name string) PolicyIdentifier {
	return PolicyIdentifier{Name: name, hasName: true}
}

func PolicyIDAndName(id uuid.UUID, name string) PolicyIdentifier {
	return PolicyIdentifier{ID: id, Name: name, hasID: true, hasName: true}
}

func (p PolicyIdentifier) HasID() bool   { return p.hasID }
func (p PolicyIdentifier) HasName() bool { return p.hasName }

func (p PolicyIdentifier) String() string {
	switch {
	case p.hasID && p.hasName:
		return p.ID.String() + " (" + p.Name + ")"
	case p.hasID:
		return p.ID.String()
	default:
		return p.Name
	}
}

func ParsePolicyIdentifier(s string) PolicyIdentifier {
	if id, err := uuid.Parse(s); err == nil {
		return PolicyID(id)
	}
	return PolicyName(s)
}
