package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtaylorio/iam-server/internal/domain"
)

// Store implements storage.Store against a PostgreSQL database reachable
// through pool. It satisfies the same contract as internal/storage/memory,
// so it can be swapped in behind the same handlers.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an already-connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) db(ctx context.Context) DBTX {
	return getDB(ctx, s.pool)
}

type publicKeyRow struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

func encodeKeys(keys []domain.UserPublicKey) ([]byte, error) {
	rows := make([]publicKeyRow, len(keys))
	for i, k := range keys {
		rows[i] = publicKeyRow{Key: base64.StdEncoding.EncodeToString(k.Key[:]), Description: k.Description}
	}
	return json.Marshal(rows)
}

func decodeKeys(raw []byte) ([]domain.UserPublicKey, error) {
	var rows []publicKeyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.UserPublicKey, len(rows))
	for i, r := range rows {
		var key [32]byte
		decoded, err := base64.StdEncoding.DecodeString(r.Key)
		if err == nil && len(decoded) == 32 {
			copy(key[:], decoded)
		}
		out[i] = domain.UserPublicKey{Key: key, Description: r.Description}
	}
	return out, nil
}

type ruleRow struct {
	Effect   domain.Effect `json:"effect"`
	Action   domain.Action `json:"action"`
	Resource string        `json:"resource"`
}

func encodeRules(rules []domain.Rule) ([]byte, error) {
	rows := make([]ruleRow, len(rules))
	for i, r := range rules {
		rows[i] = ruleRow{Effect: r.Effect, Action: r.Action, Resource: r.Resource}
	}
	return json.Marshal(rows)
}

func decodeRules(raw []byte) ([]domain.Rule, error) {
	var rows []ruleRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Rule, len(rows))
	for i, r := range rows {
		out[i] = domain.Rule{Effect: r.Effect, Action: r.Action, Resource: r.Resource}
	}
	return out, nil
}

// --- users ---

func (s *Store) resolveUserID(ctx context.Context, ident domain.UserIdentifier) (uuid.UUID, error) {
	if ident.HasID() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, ident.ID).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("user", ident.String())
		}
		return id, nil
	}
	if ident.HasEmail() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, ident.Email).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("user", ident.String())
		}
		return id, nil
	}
	return uuid.UUID{}, domain.NewNotFound("user", ident.String())
}

func (s *Store) loadUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var email string
	var keysRaw []byte
	var createdAt time.Time
	err := s.db(ctx).QueryRow(ctx,
		`SELECT coalesce(email, ''), public_keys, created_at FROM users WHERE id = $1`, id,
	).Scan(&email, &keysRaw, &createdAt)
	if err != nil {
		return nil, domain.NewNotFound("user", id.String())
	}
	keys, err := decodeKeys(keysRaw)
	if err != nil {
		return nil, domain.ErrInternal
	}
	u := &domain.User{
		ID:         id,
		Email:      email,
		Groups:     make(map[uuid.UUID]struct{}),
		Policies:   make(map[uuid.UUID]struct{}),
		PublicKeys: keys,
		CreatedAt:  createdAt,
	}

	rows, err := s.db(ctx).Query(ctx, `SELECT group_id FROM memberships WHERE user_id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var gid uuid.UUID
		if err := rows.Scan(&gid); err != nil {
			return nil, mapError(err)
		}
		u.Groups[gid] = struct{}{}
	}

	prows, err := s.db(ctx).Query(ctx, `SELECT policy_id FROM user_policy_attachments WHERE user_id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer prows.Close()
	for prows.Next() {
		var pid uuid.UUID
		if err := prows.Scan(&pid); err != nil {
			return nil, mapError(err)
		}
		u.Policies[pid] = struct{}{}
	}

	return u, nil
}

func (s *Store) GetUser(ctx context.Context, ident domain.UserIdentifier) (*domain.User, error) {
	id, err := s.resolveUserID(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

func (s *Store) GetUserID(ctx context.Context, ident domain.UserIdentifier) (uuid.UUID, error) {
	return s.resolveUserID(ctx, ident)
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	limitClause := "ALL"
	args := []any{offset}
	if limit > 0 {
		limitClause = "$2"
		args = append(args, limit)
	}
	rows, err := s.db(ctx).Query(ctx,
		`SELECT id FROM users ORDER BY created_at, id OFFSET $1 LIMIT `+limitClause, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}

	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.loadUser(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	keysRaw, err := encodeKeys(user.PublicKeys)
	if err != nil {
		return domain.ErrInternal
	}
	var email any
	if user.Email != "" {
		email = user.Email
	}
	_, err = s.db(ctx).Exec(ctx,
		`INSERT INTO users (id, email, public_keys, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, email, keysRaw, user.CreatedAt)
	return mapError(err)
}

func (s *Store) DeleteUser(ctx context.Context, ident domain.UserIdentifier) error {
	id, err := s.resolveUserID(ctx, ident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("user", ident.String())
	}
	return nil
}

// --- groups ---

func (s *Store) resolveGroupID(ctx context.Context, ident domain.GroupIdentifier) (uuid.UUID, error) {
	if ident.HasID() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM groups WHERE id = $1`, ident.ID).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("group", ident.String())
		}
		return id, nil
	}
	if ident.HasName() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM groups WHERE name = $1`, ident.Name).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("group", ident.String())
		}
		return id, nil
	}
	return uuid.UUID{}, domain.NewNotFound("group", ident.String())
}

func (s *Store) loadGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	var name string
	var createdAt time.Time
	err := s.db(ctx).QueryRow(ctx,
		`SELECT coalesce(name, ''), created_at FROM groups WHERE id = $1`, id,
	).Scan(&name, &createdAt)
	if err != nil {
		return nil, domain.NewNotFound("group", id.String())
	}
	g := &domain.Group{
		ID:        id,
		Name:      name,
		Users:     make(map[uuid.UUID]struct{}),
		Policies:  make(map[uuid.UUID]struct{}),
		CreatedAt: createdAt,
	}

	rows, err := s.db(ctx).Query(ctx, `SELECT user_id FROM memberships WHERE group_id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			return nil, mapError(err)
		}
		g.Users[uid] = struct{}{}
	}

	prows, err := s.db(ctx).Query(ctx, `SELECT policy_id FROM group_policy_attachments WHERE group_id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer prows.Close()
	for prows.Next() {
		var pid uuid.UUID
		if err := prows.Scan(&pid); err != nil {
			return nil, mapError(err)
		}
		g.Policies[pid] = struct{}{}
	}

	return g, nil
}

func (s *Store) GetGroup(ctx context.Context, ident domain.GroupIdentifier) (*domain.Group, error) {
	id, err := s.resolveGroupID(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.loadGroup(ctx, id)
}

func (s *Store) ListGroups(ctx context.Context, offset, limit int) ([]*domain.Group, error) {
	limitClause := "ALL"
	args := []any{offset}
	if limit > 0 {
		limitClause = "$2"
		args = append(args, limit)
	}
	rows, err := s.db(ctx).Query(ctx,
		`SELECT id FROM groups ORDER BY created_at, id OFFSET $1 LIMIT `+limitClause, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}

	out := make([]*domain.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.loadGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	var name any
	if group.Name != "" {
		name = group.Name
	}
	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES ($1, $2, $3)`,
		group.ID, name, group.CreatedAt)
	return mapError(err)
}

func (s *Store) DeleteGroup(ctx context.Context, ident domain.GroupIdentifier) error {
	id, err := s.resolveGroupID(ctx, ident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("group", ident.String())
	}
	return nil
}

// --- policies ---

func (s *Store) resolvePolicyID(ctx context.Context, ident domain.PolicyIdentifier) (uuid.UUID, error) {
	if ident.HasID() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM policies WHERE id = $1`, ident.ID).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("policy", ident.String())
		}
		return id, nil
	}
	if ident.HasName() {
		var id uuid.UUID
		err := s.db(ctx).QueryRow(ctx, `SELECT id FROM policies WHERE name = $1`, ident.Name).Scan(&id)
		if err != nil {
			return uuid.UUID{}, domain.NewNotFound("policy", ident.String())
		}
		return id, nil
	}
	return uuid.UUID{}, domain.NewNotFound("policy", ident.String())
}

func (s *Store) loadPolicy(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	var name, hostname string
	var rulesRaw []byte
	var createdAt, updatedAt time.Time
	err := s.db(ctx).QueryRow(ctx,
		`SELECT coalesce(name, ''), hostname, rules, created_at, updated_at FROM policies WHERE id = $1`, id,
	).Scan(&name, &hostname, &rulesRaw, &createdAt, &updatedAt)
	if err != nil {
		return nil, domain.NewNotFound("policy", id.String())
	}
	rules, err := decodeRules(rulesRaw)
	if err != nil {
		return nil, domain.ErrInternal
	}
	return &domain.Policy{
		ID: id, Name: name, Hostname: hostname, Rules: rules,
		CreatedAt: createdAt, UpdatedAt: updatedAt,
	}, nil
}

func (s *Store) GetPolicy(ctx context.Context, ident domain.PolicyIdentifier) (*domain.Policy, error) {
	id, err := s.resolvePolicyID(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.loadPolicy(ctx, id)
}

func (s *Store) ListPolicyIDs(ctx context.Context, offset, limit int) ([]uuid.UUID, error) {
	limitClause := "ALL"
	args := []any{offset}
	if limit > 0 {
		limitClause = "$2"
		args = append(args, limit)
	}
	rows, err := s.db(ctx).Query(ctx,
		`SELECT id FROM policies ORDER BY created_at, id OFFSET $1 LIMIT `+limitClause, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	rulesRaw, err := encodeRules(p.Rules)
	if err != nil {
		return domain.ErrInternal
	}
	var name any
	if p.Name != "" {
		name = p.Name
	}
	_, err = s.db(ctx).Exec(ctx,
		`INSERT INTO policies (id, name, hostname, rules, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, name, p.Hostname, rulesRaw, p.CreatedAt, p.UpdatedAt)
	return mapError(err)
}

func (s *Store) UpdatePolicy(ctx context.Context, p *domain.Policy) error {
	rulesRaw, err := encodeRules(p.Rules)
	if err != nil {
		return domain.ErrInternal
	}
	var name any
	if p.Name != "" {
		name = p.Name
	}
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE policies SET name = $2, hostname = $3, rules = $4, updated_at = $5 WHERE id = $1`,
		p.ID, name, p.Hostname, rulesRaw, time.Now().UTC())
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("policy", p.ID.String())
	}
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, ident domain.PolicyIdentifier) error {
	id, err := s.resolvePolicyID(ctx, ident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("policy", ident.String())
	}
	return nil
}

func (s *Store) ListPoliciesForUser(ctx context.Context, uid uuid.UUID, host string) ([]*domain.Policy, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT DISTINCT p.id, coalesce(p.name, ''), p.hostname, p.rules, p.created_at, p.updated_at
		FROM policies p
		WHERE p.hostname = $2 AND (
			p.id IN (SELECT policy_id FROM user_policy_attachments WHERE user_id = $1)
			OR p.id IN (
				SELECT gpa.policy_id FROM group_policy_attachments gpa
				JOIN memberships m ON m.group_id = gpa.group_id
				WHERE m.user_id = $1
			)
		)`, uid, host)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*domain.Policy
	for rows.Next() {
		var id uuid.UUID
		var name, hostname string
		var rulesRaw []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &name, &hostname, &rulesRaw, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		rules, err := decodeRules(rulesRaw)
		if err != nil {
			return nil, domain.ErrInternal
		}
		out = append(out, &domain.Policy{
			ID: id, Name: name, Hostname: hostname, Rules: rules,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	}
	return out, nil
}

// --- memberships ---

func (s *Store) CreateMembership(ctx context.Context, uident domain.UserIdentifier, gident domain.GroupIdentifier) error {
	uid, err := s.resolveUserID(ctx, uident)
	if err != nil {
		return err
	}
	gid, err := s.resolveGroupID(ctx, gident)
	if err != nil {
		return err
	}
	_, err = s.db(ctx).Exec(ctx, `INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)`, uid, gid)
	return mapError(err)
}

func (s *Store) DeleteMembership(ctx context.Context, uident domain.UserIdentifier, gident domain.GroupIdentifier) error {
	uid, err := s.resolveUserID(ctx, uident)
	if err != nil {
		return err
	}
	gid, err := s.resolveGroupID(ctx, gident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM memberships WHERE user_id = $1 AND group_id = $2`, uid, gid)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("membership", uid.String()+"/"+gid.String())
	}
	return nil
}

// --- attachments ---

func (s *Store) CreateUserPolicyAttachment(ctx context.Context, uident domain.UserIdentifier, pident domain.PolicyIdentifier) error {
	uid, err := s.resolveUserID(ctx, uident)
	if err != nil {
		return err
	}
	pid, err := s.resolvePolicyID(ctx, pident)
	if err != nil {
		return err
	}
	_, err = s.db(ctx).Exec(ctx, `INSERT INTO user_policy_attachments (user_id, policy_id) VALUES ($1, $2)`, uid, pid)
	return mapError(err)
}

func (s *Store) DeleteUserPolicyAttachment(ctx context.Context, uident domain.UserIdentifier, pident domain.PolicyIdentifier) error {
	uid, err := s.resolveUserID(ctx, uident)
	if err != nil {
		return err
	}
	pid, err := s.resolvePolicyID(ctx, pident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM user_policy_attachments WHERE user_id = $1 AND policy_id = $2`, uid, pid)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("attachment", uid.String()+"/"+pid.String())
	}
	return nil
}

func (s *Store) CreateGroupPolicyAttachment(ctx context.Context, gident domain.GroupIdentifier, pident domain.PolicyIdentifier) error {
	gid, err := s.resolveGroupID(ctx, gident)
	if err != nil {
		return err
	}
	pid, err := s.resolvePolicyID(ctx, pident)
	if err != nil {
		return err
	}
	_, err = s.db(ctx).Exec(ctx, `INSERT INTO group_policy_attachments (group_id, policy_id) VALUES ($1, $2)`, gid, pid)
	return mapError(err)
}

func (s *Store) DeleteGroupPolicyAttachment(ctx context.Context, gident domain.GroupIdentifier, pident domain.PolicyIdentifier) error {
	gid, err := s.resolveGroupID(ctx, gident)
	if err != nil {
		return err
	}
	pid, err := s.resolvePolicyID(ctx, pident)
	if err != nil {
		return err
	}
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM group_policy_attachments WHERE group_id = $1 AND policy_id = $2`, gid, pid)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("attachment", gid.String()+"/"+pid.String())
	}
	return nil
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if _, err := s.resolveUserID(ctx, domain.UserID(session.User)); err != nil {
		return err
	}
	_, err := s.db(ctx).Exec(ctx,
		`INSERT INTO sessions (id, user_id, token, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.User, session.Token, session.CreatedAt, session.ExpiresAt)
	return mapError(err)
}

func (s *Store) loadSession(ctx context.Context, uid, sid uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := s.db(ctx).QueryRow(ctx, `
		SELECT id, user_id, token, created_at, expires_at
		FROM sessions WHERE id = $1 AND user_id = $2 AND expires_at > now()`,
		sid, uid,
	).Scan(&session.ID, &session.User, &session.Token, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, domain.NewNotFound("session", sid.String())
	}
	return &session, nil
}

func (s *Store) GetSessionByID(ctx context.Context, uid, sid uuid.UUID) (*domain.Session, error) {
	return s.loadSession(ctx, uid, sid)
}

func (s *Store) GetSessionByToken(ctx context.Context, uid uuid.UUID, token string) (*domain.Session, error) {
	var session domain.Session
	err := s.db(ctx).QueryRow(ctx, `
		SELECT id, user_id, token, created_at, expires_at
		FROM sessions WHERE token = $1 AND user_id = $2 AND expires_at > now()`,
		token, uid,
	).Scan(&session.ID, &session.User, &session.Token, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, domain.NewNotFound("session", "")
	}
	return &session, nil
}

func (s *Store) RefreshSession(ctx context.Context, uid, sid uuid.UUID, expiresAt time.Time) (*domain.Session, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE sessions SET expires_at = $3 WHERE id = $1 AND user_id = $2`,
		sid, uid, expiresAt)
	if err != nil {
		return nil, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.NewNotFound("session", sid.String())
	}
	return s.loadSession(ctx, uid, sid)
}

func (s *Store) DeleteSession(ctx context.Context, uid, sid uuid.UUID) error {
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sid, uid)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("session", sid.String())
	}
	return nil
}

func (s *Store) ListUserSessions(ctx context.Context, uid uuid.UUID, offset, limit int) ([]*domain.Session, error) {
	limitClause := "ALL"
	args := []any{uid, offset}
	if limit > 0 {
		limitClause = "$3"
		args = append(args, limit)
	}
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, user_id, token, created_at, expires_at
		FROM sessions WHERE user_id = $1 AND expires_at > now()
		ORDER BY created_at, id OFFSET $2 LIMIT `+limitClause, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.ID, &session.User, &session.Token, &session.CreatedAt, &session.ExpiresAt); err != nil {
			return nil, mapError(err)
		}
		out = append(out, &session)
	}
	return out, nil
}
