package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/social-blog/internal/token"
)

// User represents a row of the `users` table.  The plain password is never
// held: SetPassword stores a bcrypt hash and there is deliberately no way to
// read a password back.  Role is populated by the repository when the row
// is loaded with its role; RoleID is nil for users created before roles
// were seeded.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Confirmed    bool      `db:"confirmed" json:"confirmed"`
	RoleID       *uint64   `db:"role_id" json:"role_id,omitempty"`
	Name         string    `db:"name" json:"name"`
	Location     string    `db:"location" json:"location"`
	AboutMe      string    `db:"about_me" json:"about_me"`
	CreatedAt    time.Time `db:"created_at" json:"member_since"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_seen"`

	Role *Role `db:"-" json:"role,omitempty"`
}

// PublicUser is the part of an account other users may see.  Email is
// only filled in by PublicFor.
type PublicUser struct {
	ID          uint64    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	AboutMe     string    `json:"about_me"`
	MemberSince time.Time `json:"member_since"`
	LastSeen    time.Time `json:"last_seen"`
	Avatar      string    `json:"avatar"`
	Email       string    `json:"email,omitempty"`
}

// Public returns the view of u shown to anybody.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Location:    u.Location,
		AboutMe:     u.AboutMe,
		MemberSince: u.CreatedAt,
		LastSeen:    u.LastActiveAt,
		Avatar:      u.GravatarURL(256),
	}
}

// PublicFor is Public plus the email address when viewer is u itself or
// an administrator.
func (u *User) PublicFor(viewer Identity) PublicUser {
	p := u.Public()
	if me, ok := UserOf(viewer); ok && (me.ID == u.ID || viewer.IsAdministrator()) {
		p.Email = u.Email
	}
	return p
}

// SetPassword replaces the stored hash with a bcrypt hash of plain.
func (u *User) SetPassword(plain string, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(b)
	return nil
}

// VerifyPassword compares plain against the stored hash.
func (u *User) VerifyPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// SetRole assigns r (which may be nil) to the user.
func (u *User) SetRole(r *Role) {
	u.Role = r
	if r == nil {
		u.RoleID = nil
		return
	}
	id := r.ID
	u.RoleID = &id
}

// Can reports whether the user's role grants p.  A user without a role can
// do nothing.
func (u *User) Can(p Permission) bool {
	return u.Role != nil && u.Role.HasPermission(p)
}

// IsAdministrator is shorthand for Can(PermAdmin).
func (u *User) IsAdministrator() bool { return u.Can(PermAdmin) }

// ConfirmationDecoder verifies confirmation tokens.  *token.Codec
// satisfies it.
type ConfirmationDecoder interface {
	DecodeConfirmation(raw string) (token.Confirmation, error)
}

// Confirm applies a confirmation or change-email token to the user.  It
// returns false, leaving the user untouched, when the token does not verify
// or was issued for a different user.  On success the account is marked
// confirmed and, for change-email tokens, the email is replaced.  The
// change is only staged on u; the caller persists it.
func (u *User) Confirm(dec ConfirmationDecoder, raw string) bool {
	data, err := dec.DecodeConfirmation(raw)
	if err != nil {
		return false
	}
	if u.ID == 0 || data.UserID != u.ID {
		return false
	}
	u.Confirmed = true
	if data.NewEmail != "" {
		u.Email = data.NewEmail
	}
	return true
}

// Ping records activity.
func (u *User) Ping(now time.Time) { u.LastActiveAt = now.UTC() }

// GravatarURL returns the avatar image URL for the user's email.
func (u *User) GravatarURL(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=identicon&r=g", hex.EncodeToString(sum[:]), size)
}
