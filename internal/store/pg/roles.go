package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgeml/platform/internal/auth"
	"github.com/forgeml/platform/internal/ids"
)

type roleStore struct{ *Store }

var _ auth.RoleStore = (*roleStore)(nil)

// Permissions are stored as a jsonb array; they are values, not rows.
const roleColumns = `id, name, description, permissions, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (*auth.Role, error) {
	var (
		r        auth.Role
		rawPerms []byte
	)
	err := row.Scan(&r.ID, &r.Name, &r.Description, &rawPerms, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawPerms) > 0 {
		if err := json.Unmarshal(rawPerms, &r.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	return &r, nil
}

func (s *roleStore) Create(ctx context.Context, r *auth.Role) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if r.ID == "" {
		r.ID = ids.New()
	}
	perms, err := json.Marshal(r.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name, description, permissions)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, r.ID, r.Name, r.Description, perms)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return wrapErr("create role", err, auth.ErrDuplicateRole)
	}
	return nil
}

func (s *roleStore) GetByID(ctx context.Context, id string) (*auth.Role, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	r, err := scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where id = $1`, id))
	if err != nil {
		return nil, wrapErr("get role", err, auth.ErrDuplicateRole)
	}
	return r, nil
}

func (s *roleStore) GetByName(ctx context.Context, name string) (*auth.Role, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	r, err := scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where name = $1`, name))
	if err != nil {
		return nil, wrapErr("get role", err, auth.ErrDuplicateRole)
	}
	return r, nil
}

func (s *roleStore) List(ctx context.Context) ([]auth.Role, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`select `+roleColumns+` from roles order by name asc`)
	if err != nil {
		return nil, wrapErr("list roles", err, auth.ErrDuplicateRole)
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, wrapErr("list roles", err, auth.ErrDuplicateRole)
		}
		roles = append(roles, *r)
	}
	return roles, wrapErr("list roles", rows.Err(), auth.ErrDuplicateRole)
}

func (s *roleStore) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.description, r.permissions, r.created_at, r.updated_at
		from roles r
		join user_roles ur on ur.role_id = r.id
		where ur.user_id = $1
		order by r.name asc
	`, userID)
	if err != nil {
		return nil, wrapErr("roles for user", err, auth.ErrDuplicateRole)
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, wrapErr("roles for user", err, auth.ErrDuplicateRole)
		}
		roles = append(roles, *r)
	}
	return roles, wrapErr("roles for user", rows.Err(), auth.ErrDuplicateRole)
}

func (s *roleStore) Assign(ctx context.Context, userID, roleID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id) values ($1, $2)
		on conflict do nothing
	`, userID, roleID)
	return wrapErr("assign role", err, auth.ErrDuplicateRole)
}
