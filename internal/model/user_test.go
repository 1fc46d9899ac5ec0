package model

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/social-blog/internal/token"
)

func newUser(t *testing.T, id uint64, email string) *User {
	t.Helper()
	u := &User{ID: id, Email: email, Username: strings.Split(email, "@")[0]}
	if err := u.SetPassword("cat", bcrypt.MinCost); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return u
}

func TestPasswordSetterStoresHash(t *testing.T) {
	u := newUser(t, 1, "a@x.com")
	if u.PasswordHash == "" || u.PasswordHash == "cat" {
		t.Fatalf("expected a hash, got %q", u.PasswordHash)
	}
}

func TestPasswordVerification(t *testing.T) {
	u := newUser(t, 1, "a@x.com")
	if !u.VerifyPassword("cat") {
		t.Fatalf("expected correct password to verify")
	}
	if u.VerifyPassword("dog") {
		t.Fatalf("expected wrong password to fail")
	}
	if (&User{}).VerifyPassword("") {
		t.Fatalf("user without hash must never verify")
	}
}

func TestPasswordSaltsAreRandom(t *testing.T) {
	a, b := newUser(t, 1, "a@x.com"), newUser(t, 2, "b@x.com")
	if a.PasswordHash == b.PasswordHash {
		t.Fatalf("expected different hashes for the same password")
	}
}

func TestUserWithoutRoleCannotDoAnything(t *testing.T) {
	u := &User{ID: 1}
	for _, p := range AllPermissions {
		if u.Can(p) {
			t.Fatalf("role-less user can %s", p)
		}
	}
	if u.IsAdministrator() {
		t.Fatalf("role-less user is administrator")
	}
}

func TestUserCapabilitiesFollowRole(t *testing.T) {
	roles := SeedRoles()
	u := &User{ID: 1}
	u.SetRole(&roles[0])
	if !u.Can(PermWrite) || u.Can(PermModerate) || u.IsAdministrator() {
		t.Fatalf("unexpected capabilities for %s", roles[0].Name)
	}
	u.SetRole(&roles[2])
	if !u.IsAdministrator() || !u.Can(PermModerate) {
		t.Fatalf("administrator lacks permissions")
	}
	u.SetRole(nil)
	if u.RoleID != nil || u.Can(PermFollow) {
		t.Fatalf("clearing the role must drop capabilities")
	}
}

func TestConfirmIsBoundToTheIssuingUser(t *testing.T) {
	codec := token.NewCodec("secret")
	a, b := newUser(t, 1, "a@x.com"), newUser(t, 2, "b@x.com")
	raw, err := codec.GenerateConfirmation(a.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if b.Confirm(codec, raw) {
		t.Fatalf("token for user A confirmed user B")
	}
	if b.Confirmed {
		t.Fatalf("failed confirmation mutated user B")
	}
	if !a.Confirm(codec, raw) {
		t.Fatalf("expected user A to confirm")
	}
	if !a.Confirmed {
		t.Fatalf("expected user A to be confirmed")
	}
}

func TestConfirmRejectsGarbage(t *testing.T) {
	codec := token.NewCodec("secret")
	u := newUser(t, 1, "a@x.com")
	if u.Confirm(codec, "garbage") || u.Confirmed {
		t.Fatalf("garbage token confirmed the user")
	}
}

func TestChangeEmailTokenRoundTrip(t *testing.T) {
	codec := token.NewCodec("secret")
	u := newUser(t, 1, "old@x.com")
	raw, err := codec.GenerateChangeEmail(u.ID, "new@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !u.Confirm(codec, raw) {
		t.Fatalf("expected change-email token to apply")
	}
	if u.Email != "new@x.com" || !u.Confirmed {
		t.Fatalf("unexpected state email=%q confirmed=%v", u.Email, u.Confirmed)
	}
}

func TestConfirmStaysConfirmed(t *testing.T) {
	codec := token.NewCodec("secret")
	u := newUser(t, 1, "a@x.com")
	raw, _ := codec.GenerateConfirmation(u.ID)
	u.Confirm(codec, raw)
	u.Confirm(codec, "garbage")
	if !u.Confirmed {
		t.Fatalf("a failed confirmation must not revert a confirmed account")
	}
}

func TestPingStampsActivity(t *testing.T) {
	u := &User{}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	u.Ping(now)
	if !u.LastActiveAt.Equal(now) || u.LastActiveAt.Location() != time.UTC {
		t.Fatalf("unexpected last active %v", u.LastActiveAt)
	}
}

func TestGravatarURL(t *testing.T) {
	u := &User{Email: " John@Example.com "}
	got := u.GravatarURL(80)
	// md5("john@example.com")
	if !strings.Contains(got, "d4c74594d841139328695756648b6bd6") || !strings.Contains(got, "s=80") {
		t.Fatalf("unexpected gravatar url %s", got)
	}
}

func TestPublicForHidesEmailFromOthers(t *testing.T) {
	owner := &User{ID: 1, Email: "owner@example.com", Username: "owner"}
	other := &User{ID: 2, Email: "other@example.com", Username: "other", Role: &Role{Permissions: PermFollow}}
	admin := &User{ID: 3, Email: "admin@example.com", Username: "admin", Role: &Role{Permissions: PermAdmin}}

	cases := []struct {
		name   string
		viewer Identity
		want   string
	}{
		{"anonymous", Anonymous{}, ""},
		{"other user", Authenticated{User: other}, ""},
		{"owner", Authenticated{User: owner}, "owner@example.com"},
		{"administrator", Authenticated{User: admin}, "owner@example.com"},
	}
	for _, tc := range cases {
		if got := owner.PublicFor(tc.viewer).Email; got != tc.want {
			t.Fatalf("%s: expected email %q, got %q", tc.name, tc.want, got)
		}
	}
	if p := owner.Public(); p.Email != "" || p.Username != "owner" || p.Avatar == "" {
		t.Fatalf("unexpected public view %+v", p)
	}
}
