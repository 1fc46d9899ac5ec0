package model

import "testing"

func TestPermissionBitsAreDistinct(t *testing.T) {
	var seen Permission
	for _, p := range AllPermissions {
		if p == 0 || p&(p-1) != 0 {
			t.Fatalf("%s is not a single bit: %d", p, p)
		}
		if seen&p != 0 {
			t.Fatalf("%s overlaps another permission", p)
		}
		seen |= p
	}
	if seen != 31 {
		t.Fatalf("expected bits 1..16, got mask %d", seen)
	}
}

func TestRoleBuiltFromSubsetHasExactlyThatSubset(t *testing.T) {
	n := len(AllPermissions)
	for subset := 0; subset < 1<<n; subset++ {
		var r Role
		for i, p := range AllPermissions {
			if subset&(1<<i) != 0 {
				r.AddPermission(p)
			}
		}
		for i, p := range AllPermissions {
			want := subset&(1<<i) != 0
			if got := r.HasPermission(p); got != want {
				t.Fatalf("subset %05b: HasPermission(%s)=%v, want %v", subset, p, got, want)
			}
		}
	}
}

func TestAddRemoveAreIdempotent(t *testing.T) {
	for _, p := range AllPermissions {
		once := AddPermission(PermFollow, p)
		if twice := AddPermission(once, p); twice != once {
			t.Fatalf("adding %s twice changed mask %d -> %d", p, once, twice)
		}
		gone := RemovePermission(once, p)
		if again := RemovePermission(gone, p); again != gone {
			t.Fatalf("removing %s twice changed mask %d -> %d", p, gone, again)
		}
		if HasPermission(gone, p) {
			t.Fatalf("%s still present after removal", p)
		}
	}
}

func TestCompositePermissionNeedsAllBits(t *testing.T) {
	composite := PermWrite | PermModerate
	if HasPermission(PermWrite, composite) {
		t.Fatalf("partial mask must not satisfy composite permission")
	}
	if !HasPermission(PermWrite|PermModerate|PermFollow, composite) {
		t.Fatalf("full mask must satisfy composite permission")
	}
}
