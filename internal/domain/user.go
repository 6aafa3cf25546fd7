package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserPublicKey is one Ed25519 public key registered to a user, used to
// verify the signature on incoming requests.
type UserPublicKey struct {
	Key         [32]byte
	Description string
}

// Equal reports whether two keys are byte-equal.
func (k UserPublicKey) Equal(other [32]byte) bool {
	return k.Key == other
}

// User is the core identity entity. Aliased by Email.
type User struct {
	ID         uuid.UUID
	Email      string
	Groups     map[uuid.UUID]struct{}
	Policies   map[uuid.UUID]struct{}
	PublicKeys []UserPublicKey
	CreatedAt  time.Time
}

// NewUser constructs a validated User. Email may be empty (the
// reference performs no syntactic email validation).
func NewUser(email string, keys []UserPublicKey) (*User, error) {
	u := &User{
		ID:         uuid.New(),
		Email:      strings.TrimSpace(email),
		Groups:     make(map[uuid.UUID]struct{}),
		Policies:   make(map[uuid.UUID]struct{}),
		PublicKeys: keys,
		CreatedAt:  time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks field-level invariants. Uniqueness of the email alias is
// enforced by the storage layer, not here — it requires a view of all
// other users.
func (u *User) Validate() error {
	var errs ValidationErrors
	if len(u.PublicKeys) == 0 {
		errs = append(errs, ValidationError{Field: "public_keys", Message: "at least one public key is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// HasPublicKey reports whether key is byte-equal to one of u's registered
// public keys, during signature verification.
func (u *User) HasPublicKey(key [32]byte) bool {
	for _, k := range u.PublicKeys {
		if k.Equal(key) {
			return true
		}
	}
	return false
}

// Clone returns a deep-enough copy of u suitable for installing into a new
// immutable storage state — no operation may alias mutable
// state shared with a previous snapshot).
func (u *User) Clone() *User {
	c := *u
	c.Groups = make(map[uuid.UUID]struct{}, len(u.Groups))
	for g := range u.Groups {
		c.Groups[g] = struct{}{}
	}
	c.Policies = make(map[uuid.UUID]struct{}, len(u.Policies))
	for p := range u.Policies {
		c.Policies[p] = struct{}{}
	}
	c.PublicKeys = append([]UserPublicKey(nil), u.PublicKeys...)
	return &c
}
