package auth

import (
	"errors"
	"sort"
	"testing"
)

func TestPermissionSetAllows(t *testing.T) {
	set := NewPermissionSet(Role{Permissions: []string{PermReadUsers, PermWriteModels}})

	if !set.Allows(PermReadUsers) {
		t.Fatalf("expected exact match to be allowed")
	}
	if set.Allows(PermDeleteUsers) {
		t.Fatalf("unexpected permission")
	}
	// No glob semantics: "read:*" only ever matches itself.
	set = PermissionSetOf([]string{"read:*"})
	if set.Allows(PermReadUsers) {
		t.Fatalf("prefix patterns must not match")
	}
}

func TestPermissionWildcard(t *testing.T) {
	set := PermissionSetOf([]string{PermissionWildcard})
	for _, perm := range BuiltinPermissions {
		if !set.Allows(perm) {
			t.Fatalf("wildcard must allow %s", perm)
		}
	}
	if !set.Allows("anything:at_all") {
		t.Fatalf("wildcard must allow unknown permissions too")
	}
}

func TestPermissionSetUnion(t *testing.T) {
	set := NewPermissionSet(
		Role{Permissions: []string{PermReadModels, " read:users ", ""}},
		Role{Permissions: []string{PermReadModels, PermReadPredictions}},
	)
	got := set.Strings()
	want := []string{PermReadModels, PermReadPredictions, PermReadUsers}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !sort.StringsAreSorted(got) {
		t.Fatalf("Strings must be sorted: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestValidPermission(t *testing.T) {
	for _, perm := range []string{PermissionWildcard, "read:users", "execute:workflows"} {
		if err := ValidPermission(perm); err != nil {
			t.Fatalf("permission %q should be valid: %v", perm, err)
		}
	}
	for _, perm := range []string{"", "read", "read:", ":users"} {
		if err := ValidPermission(perm); !errors.Is(err, ErrValidation) {
			t.Fatalf("permission %q: expected ErrValidation, got %v", perm, err)
		}
	}
}
