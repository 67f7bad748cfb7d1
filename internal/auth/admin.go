package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Admin operations. Callers are expected to have passed AuthorizeRequest for
// the matching write:users / write:roles permission before invoking these;
// the service itself performs no implicit interception.

// CreateUserRequest is the admin user-creation input.
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	FullName string
	RoleIDs  []string
}

// CreateUser creates an account with explicit role assignment. Unlike
// Register it is not rate limited and does not trigger verification mail.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Validate(req.Password); err != nil {
		return nil, err
	}
	for _, roleID := range req.RoleIDs {
		if _, err := s.roles.GetByID(ctx, roleID); err != nil {
			return nil, fmt.Errorf("role %s: %w", roleID, err)
		}
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		RoleIDs:      req.RoleIDs,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// GetUser fetches one user by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers returns a page of users plus the total match count.
func (s *Service) ListUsers(ctx context.Context, q ListUsersQuery) ([]User, int, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.users.List(ctx, q)
}

// UpdateUser applies a partial update. Role reassignment takes effect on the
// user's next token issuance, not on tokens already in the wild.
func (s *Service) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (*User, error) {
	if upd.Username != nil {
		if err := validateUsername(*upd.Username); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	for _, roleID := range upd.RoleIDs {
		if _, err := s.roles.GetByID(ctx, roleID); err != nil {
			return nil, fmt.Errorf("role %s: %w", roleID, err)
		}
	}
	return s.users.Update(ctx, userID, upd)
}

// DeleteUser deactivates the account and revokes its sessions.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deactivated", zap.String("user_id", userID))
	return nil
}

// CreateRole adds a role with the given permission strings.
func (s *Service) CreateRole(ctx context.Context, name, description string, permissions []string) (*Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(permissions))
	perms := make([]string, 0, len(permissions))
	for _, perm := range permissions {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if err := ValidPermission(perm); err != nil {
			return nil, err
		}
		if _, dup := seen[perm]; dup {
			continue
		}
		seen[perm] = struct{}{}
		perms = append(perms, perm)
	}
	role := &Role{
		Name:        name,
		Description: strings.TrimSpace(description),
		Permissions: perms,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	s.log.Info("role created", zap.String("role_id", role.ID), zap.String("name", role.Name))
	return role, nil
}

// ListRoles returns every role.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles.List(ctx)
}

// ListPermissions returns the builtin permission catalog.
func (s *Service) ListPermissions(_ context.Context) []string {
	out := make([]string, len(BuiltinPermissions))
	copy(out, BuiltinPermissions)
	return out
}

// AssignRole grants a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return err
	}
	return s.roles.Assign(ctx, userID, roleID)
}

// EnsureDefaults seeds the builtin roles on startup. Existing roles are left
// untouched so operator edits survive restarts.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	for _, builtin := range BuiltinRoles {
		_, err := s.roles.GetByName(ctx, builtin.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		role := builtin
		if err := s.roles.Create(ctx, &role); err != nil && !errors.Is(err, ErrDuplicateRole) {
			return err
		}
	}
	return nil
}
