package pg

import (
	"context"
	"strconv"
	"strings"

	"github.com/forgeml/platform/internal/auth"
	"github.com/forgeml/platform/internal/ids"
)

type userStore struct{ *Store }

var _ auth.UserStore = (*userStore)(nil)

const userColumns = `id, username, email, password_hash, full_name, is_active, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = ids.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("create user", err, auth.ErrDuplicateUser)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into users (id, username, email, password_hash, full_name, is_active, is_verified)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.IsActive, u.IsVerified)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return wrapErr("create user", err, auth.ErrDuplicateUser)
	}

	for _, roleID := range u.RoleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into user_roles (user_id, role_id) values ($1, $2)
			on conflict do nothing
		`, u.ID, roleID); err != nil {
			return wrapErr("assign role", err, auth.ErrDuplicateUser)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("create user", err, auth.ErrDuplicateUser)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *userStore) getBy(ctx context.Context, column, value string) (*auth.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	u, err := scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where `+column+` = $1`, value))
	if err != nil {
		return nil, wrapErr("get user", err, auth.ErrDuplicateUser)
	}
	u.RoleIDs, err = s.roleIDs(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userStore) roleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select role_id from user_roles where user_id = $1`, userID)
	if err != nil {
		return nil, wrapErr("load role ids", err, auth.ErrDuplicateUser)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("load role ids", err, auth.ErrDuplicateUser)
		}
		out = append(out, id)
	}
	return out, wrapErr("load role ids", rows.Err(), auth.ErrDuplicateUser)
}

func (s *userStore) List(ctx context.Context, q auth.ListUsersQuery) ([]auth.User, int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	where := ""
	args := []any{}
	if search := strings.TrimSpace(q.Search); search != "" {
		where = `where username ilike $1 or email ilike $1 or full_name ilike $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from users `+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count users", err, auth.ErrDuplicateUser)
	}

	args = append(args, q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+` from users `+where+`
		order by created_at asc
		limit $`+itoa(len(args)-1)+` offset $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, wrapErr("list users", err, auth.ErrDuplicateUser)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrapErr("list users", err, auth.ErrDuplicateUser)
		}
		users = append(users, *u)
	}
	return users, total, wrapErr("list users", rows.Err(), auth.ErrDuplicateUser)
}

func (s *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("update user", err, auth.ErrDuplicateUser)
	}
	defer func() { _ = tx.Rollback() }()

	set := []string{"updated_at = now()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+" = $"+itoa(len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	args = append(args, id)

	u, err := scanUser(tx.QueryRowContext(ctx, `
		update users set `+strings.Join(set, ", ")+`
		where id = $`+itoa(len(args))+`
		returning `+userColumns, args...))
	if err != nil {
		return nil, wrapErr("update user", err, auth.ErrDuplicateUser)
	}

	if upd.RoleIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`delete from user_roles where user_id = $1`, id); err != nil {
			return nil, wrapErr("update roles", err, auth.ErrDuplicateUser)
		}
		for _, roleID := range upd.RoleIDs {
			if _, err := tx.ExecContext(ctx, `
				insert into user_roles (user_id, role_id) values ($1, $2)
			`, id, roleID); err != nil {
				return nil, wrapErr("update roles", err, auth.ErrDuplicateUser)
			}
		}
		u.RoleIDs = upd.RoleIDs
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("update user", err, auth.ErrDuplicateUser)
	}
	if upd.RoleIDs == nil {
		if u.RoleIDs, err = s.roleIDs(ctx, id); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *userStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.exec(ctx, "update password", `
		update users set password_hash = $1, updated_at = now() where id = $2
	`, passwordHash, id)
}

func (s *userStore) SetVerified(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.exec(ctx, "set verified", `
		update users set is_verified = true, updated_at = now() where id = $1
	`, id)
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.exec(ctx, "deactivate user", `
		update users set is_active = false, updated_at = now() where id = $1
	`, id)
}

// exec runs a statement that must touch exactly one row.
func (s *userStore) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(op, err, auth.ErrDuplicateUser)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err, auth.ErrDuplicateUser)
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
