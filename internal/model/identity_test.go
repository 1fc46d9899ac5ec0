package model

import "testing"

func TestAnonymousDeniesEverything(t *testing.T) {
	var id Identity = Anonymous{}
	perms := append([]Permission{PermWrite | PermAdmin, 0xff}, AllPermissions...)
	for _, p := range perms {
		if id.Can(p) {
			t.Fatalf("anonymous can %d", p)
		}
	}
	if id.IsAdministrator() {
		t.Fatalf("anonymous is administrator")
	}
	if _, ok := UserOf(id); ok {
		t.Fatalf("anonymous resolved to a user")
	}
}

func TestAuthenticatedDelegatesToUser(t *testing.T) {
	roles := SeedRoles()
	u := &User{ID: 3}
	u.SetRole(&roles[1])
	var id Identity = Authenticated{User: u}
	if !id.Can(PermModerate) || id.Can(PermAdmin) || id.IsAdministrator() {
		t.Fatalf("authenticated identity does not mirror the moderator role")
	}
	got, ok := UserOf(id)
	if !ok || got != u {
		t.Fatalf("expected UserOf to return the wrapped user")
	}
	if (Authenticated{}).Can(PermFollow) {
		t.Fatalf("empty authenticated identity must deny")
	}
}
