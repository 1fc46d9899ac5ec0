package model

import "testing"

func TestSeedRolesTable(t *testing.T) {
	roles := SeedRoles()
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}
	want := map[string]Permission{
		RoleUser:          PermFollow | PermComment | PermWrite,
		RoleModerator:     PermFollow | PermComment | PermWrite | PermModerate,
		RoleAdministrator: PermFollow | PermComment | PermWrite | PermModerate | PermAdmin,
	}
	defaults := 0
	for _, r := range roles {
		if r.Permissions != want[r.Name] {
			t.Fatalf("%s: mask %d, want %d", r.Name, r.Permissions, want[r.Name])
		}
		if r.IsDefault {
			defaults++
			if r.Name != DefaultRoleName {
				t.Fatalf("unexpected default role %s", r.Name)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default role, got %d", defaults)
	}
}

func TestSeedRolesIsStable(t *testing.T) {
	first, second := SeedRoles(), SeedRoles()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeding not deterministic: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestResetPermissions(t *testing.T) {
	r := Role{Name: "x", Permissions: PermAdmin | PermWrite}
	r.ResetPermissions()
	if r.Permissions != 0 {
		t.Fatalf("expected empty mask, got %d", r.Permissions)
	}
}
