package model

// Identity is what request handlers know about the caller.  Authenticated
// and Anonymous are the only implementations, so handlers never need a nil
// check to decide whether somebody may act.
type Identity interface {
	Can(p Permission) bool
	IsAdministrator() bool
}

// Authenticated wraps a logged-in user.
type Authenticated struct {
	User *User
}

func (a Authenticated) Can(p Permission) bool {
	return a.User != nil && a.User.Can(p)
}

func (a Authenticated) IsAdministrator() bool { return a.Can(PermAdmin) }

// Anonymous is the identity of a caller without a valid auth token.
type Anonymous struct{}

func (Anonymous) Can(Permission) bool   { return false }
func (Anonymous) IsAdministrator() bool { return false }

// UserOf returns the user behind id, or false for anonymous callers.
func UserOf(id Identity) (*User, bool) {
	a, ok := id.(Authenticated)
	if !ok || a.User == nil {
		return nil, false
	}
	return a.User, true
}
