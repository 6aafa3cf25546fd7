package http

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/mtaylorio/iam-server/internal/domain"
)

type publicKeyDTO struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

type userDTO struct {
	ID         string         `json:"id"`
	Email      string         `json:"email,omitempty"`
	Groups     []string       `json:"groups"`
	Policies   []string       `json:"policies"`
	PublicKeys []publicKeyDTO `json:"public_keys"`
	CreatedAt  time.Time      `json:"created_at"`
}

func newUserDTO(u *domain.User) userDTO {
	d := userDTO{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	for g := range u.Groups {
		d.Groups = append(d.Groups, g.String())
	}
	for p := range u.Policies {
		d.Policies = append(d.Policies, p.String())
	}
	for _, k := range u.PublicKeys {
		d.PublicKeys = append(d.PublicKeys, publicKeyDTO{
			Key:         base64.StdEncoding.EncodeToString(k.Key[:]),
			Description: k.Description,
		})
	}
	return d
}

type createUserRequest struct {
	Email      string         `json:"email"`
	PublicKeys []publicKeyDTO `json:"public_keys"`
}

func (req createUserRequest) toDomain() (*domain.User, error) {
	keys := make([]domain.UserPublicKey, 0, len(req.PublicKeys))
	for _, k := range req.PublicKeys {
		raw, err := base64.StdEncoding.DecodeString(k.Key)
		if err != nil || len(raw) != 32 {
			return nil, domain.ValidationError{Field: "public_keys", Message: "key must be base64 of 32 bytes"}
		}
		var key [32]byte
		copy(key[:], raw)
		keys = append(keys, domain.UserPublicKey{Key: key, Description: k.Description})
	}
	return domain.NewUser(req.Email, keys)
}

type groupDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Users     []string  `json:"users"`
	Policies  []string  `json:"policies"`
	CreatedAt time.Time `json:"created_at"`
}

func newGroupDTO(g *domain.Group) groupDTO {
	d := groupDTO{ID: g.ID.String(), Name: g.Name, CreatedAt: g.CreatedAt}
	for u := range g.Users {
		d.Users = append(d.Users, u.String())
	}
	for p := range g.Policies {
		d.Policies = append(d.Policies, p.String())
	}
	return d
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type ruleDTO struct {
	Effect   domain.Effect `json:"effect"`
	Action   domain.Action `json:"action"`
	Resource string        `json:"resource"`
}

type policyDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Hostname  string    `json:"hostname"`
	Rules     []ruleDTO `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPolicyDTO(p *domain.Policy) policyDTO {
	d := policyDTO{
		ID:        p.ID.String(),
		Name:      p.Name,
		Hostname:  p.Hostname,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, r := range p.Rules {
		d.Rules = append(d.Rules, ruleDTO{Effect: r.Effect, Action: r.Action, Resource: r.Resource})
	}
	return d
}

type createPolicyRequest struct {
	Name     string    `json:"name"`
	Hostname string    `json:"hostname"`
	Rules    []ruleDTO `json:"rules"`
}

func (req createPolicyRequest) rules() []domain.Rule {
	out := make([]domain.Rule, 0, len(req.Rules))
	for _, r := range req.Rules {
		out = append(out, domain.Rule{Effect: r.Effect, Action: r.Action, Resource: r.Resource})
	}
	return out
}

type sessionDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSessionDTO(s *domain.Session, includeToken bool) sessionDTO {
	d := sessionDTO{
		ID:        s.ID.String(),
		UserID:    s.User.String(),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if includeToken {
		d.Token = s.Token
	}
	return d
}

func parseUUIDParam(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
