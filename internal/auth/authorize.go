package auth

import (
	"fmt"
	"sort"
	"strings"
)

// PermissionWildcard grants every action when present in a permission set.
const PermissionWildcard = "*"

// PermissionSet is the snapshot of a user's effective permissions, resolved
// from role membership at token-issuance time. Later role edits do not alter
// already-issued tokens; callers pick up changes on the next refresh.
type PermissionSet map[string]struct{}

// NewPermissionSet unions the permissions of the given roles, trimming and
// deduplicating along the way.
func NewPermissionSet(roles ...Role) PermissionSet {
	set := make(PermissionSet)
	for _, role := range roles {
		for _, perm := range role.Permissions {
			perm = strings.TrimSpace(perm)
			if perm == "" {
				continue
			}
			set[perm] = struct{}{}
		}
	}
	return set
}

// PermissionSetOf builds a set from raw permission strings, e.g. the
// permissions claim of a verified access token.
func PermissionSetOf(perms []string) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, perm := range perms {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		set[perm] = struct{}{}
	}
	return set
}

// Allows reports whether required is granted: exact string match only, plus
// the wildcard sentinel. No prefix or glob semantics.
func (s PermissionSet) Allows(required string) bool {
	if _, ok := s[PermissionWildcard]; ok {
		return true
	}
	_, ok := s[required]
	return ok
}

// Strings returns the set in sorted order, suitable for embedding in token
// claims deterministically.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for perm := range s {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// ValidPermission checks the "action:resource" shape (or the bare wildcard)
// for catalog and role management operations.
func ValidPermission(perm string) error {
	if perm == PermissionWildcard {
		return nil
	}
	action, resource, ok := strings.Cut(perm, ":")
	if !ok || action == "" || resource == "" {
		return fmt.Errorf("%w: permission %q must be action:resource or *", ErrValidation, perm)
	}
	return nil
}
