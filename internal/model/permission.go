package model

// Permission is a single capability bit.  Roles combine permissions into a
// mask with bitwise OR.
type Permission uint

const (
	PermFollow   Permission = 1 << iota // follow other users
	PermComment                         // comment on posts
	PermWrite                           // write posts
	PermModerate                        // moderate comments
	PermAdmin                           // administer users and roles
)

// AllPermissions lists every permission in bit order.
var AllPermissions = []Permission{PermFollow, PermComment, PermWrite, PermModerate, PermAdmin}

var permissionNames = map[Permission]string{
	PermFollow:   "FOLLOW",
	PermComment:  "COMMENT",
	PermWrite:    "WRITE",
	PermModerate: "MODERATE",
	PermAdmin:    "ADMIN",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// HasPermission reports whether every bit of p is set in mask, so composite
// permissions spanning several bits only match when all of them are held.
func HasPermission(mask, p Permission) bool {
	return mask&p == p
}

// AddPermission returns mask with the bits of p set.
func AddPermission(mask, p Permission) Permission {
	return mask | p
}

// RemovePermission returns mask with the bits of p cleared.
func RemovePermission(mask, p Permission) Permission {
	return mask &^ p
}
