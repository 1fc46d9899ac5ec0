// Package service holds the account and social workflows.  Services talk
// to storage through the small interfaces in stores.go so they can be
// tested without a database.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/metrics"
	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/repository"
	"github.com/iliyamo/social-blog/internal/token"
)

// AccountConfig carries the settings the account flows depend on.
type AccountConfig struct {
	AdminEmail    string
	AuthTokenTTL  time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// AccountService implements registration, login, confirmation and the
// email and password change flows.
type AccountService struct {
	users UserStore
	roles RoleStore
	codec *token.Codec
	mail  Mailer
	cfg   AccountConfig
	log   *zap.Logger

	// Now is the service clock.  Tests replace it.
	Now func() time.Time
}

func NewAccountService(users UserStore, roles RoleStore, codec *token.Codec, mail Mailer, cfg AccountConfig, log *zap.Logger) *AccountService {
	cfg.AdminEmail = normalizeEmail(cfg.AdminEmail)
	return &AccountService{users: users, roles: roles, codec: codec, mail: mail, cfg: cfg, log: log, Now: time.Now}
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=64"`
	Username  string `json:"username" validate:"required,max=64,username"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

// Register creates an account together with its self-follow edge and
// queues the confirmation email.  Duplicate email or username yields
// repository.ErrEmailExists / repository.ErrUsernameExists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return nil, err
	}
	email := in.Email
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, repository.ErrUsernameExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	u := &model.User{Email: email, Username: in.Username}
	if err := u.SetPassword(in.Password, s.cfg.BcryptCost); err != nil {
		return nil, err
	}
	role, err := s.initialRole(ctx, email)
	if err != nil {
		return nil, err
	}
	u.SetRole(role)
	now := s.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.LastActiveAt = now, now

	err = s.users.Create(ctx, u)
	metrics.Account("register", err)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("username", u.Username))
	s.sendConfirmation(u)
	return u, nil
}

// initialRole picks the role of a new account: Administrator for the
// configured admin email, otherwise the default role.  It returns nil when
// roles have not been seeded.
func (s *AccountService) initialRole(ctx context.Context, email string) (*model.Role, error) {
	if s.cfg.AdminEmail != "" && email == s.cfg.AdminEmail {
		r, err := s.roles.FindByName(ctx, model.RoleAdministrator)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	r, err := s.roles.FindDefault(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("no default role, creating user without a role")
		return nil, nil
	}
	return r, err
}

// Authenticate checks an email/password pair.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		metrics.Account("login", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.VerifyPassword(password) {
		metrics.Account("login", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	metrics.Account("login", nil)
	return u, nil
}

// IssueAuthToken signs an authentication token for u.
func (s *AccountService) IssueAuthToken(u *model.User) (token.AuthToken, error) {
	return s.codec.GenerateAuth(u.ID, s.cfg.AuthTokenTTL)
}

// ResolveAuthToken returns the user an authentication token was issued
// for.  A valid token for a deleted user is reported as invalid.
func (s *AccountService) ResolveAuthToken(ctx context.Context, raw string) (*model.User, error) {
	id, err := s.codec.VerifyAuth(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, token.ErrInvalidToken
	}
	return u, err
}

// Identify maps a raw bearer token to the caller's identity.  Anything
// that does not resolve to a user is Anonymous.
func (s *AccountService) Identify(ctx context.Context, raw string) model.Identity {
	if strings.TrimSpace(raw) == "" {
		return model.Anonymous{}
	}
	u, err := s.ResolveAuthToken(ctx, raw)
	if err != nil {
		if !errors.Is(err, token.ErrInvalidToken) {
			s.log.Warn("resolve auth token failed", zap.Error(err))
		}
		return model.Anonymous{}
	}
	return model.Authenticated{User: u}
}

// Ping stamps u as active now.
func (s *AccountService) Ping(ctx context.Context, u *model.User) error {
	u.Ping(s.Now())
	return s.users.Touch(ctx, u.ID, u.LastActiveAt)
}

// ResendConfirmation queues a fresh confirmation email.
func (s *AccountService) ResendConfirmation(ctx context.Context, u *model.User) error {
	if u.Confirmed {
		return ErrAlreadyConfirmed
	}
	s.sendConfirmation(u)
	return nil
}

func (s *AccountService) sendConfirmation(u *model.User) {
	tok, err := s.codec.GenerateConfirmation(u.ID)
	if err != nil {
		s.log.Error("generate confirmation token failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return
	}
	s.mail.SendConfirmation(u, tok)
}

// ConfirmAccount applies a confirmation or change-email token issued for
// u and persists the result.  u is only modified when the change has been
// stored.
func (s *AccountService) ConfirmAccount(ctx context.Context, u *model.User, raw string) error {
	next := *u
	if !next.Confirm(s.codec, raw) {
		metrics.Account("confirm", token.ErrInvalidToken)
		return token.ErrInvalidToken
	}
	if next.Email != u.Email {
		if err := s.ensureEmailFree(ctx, next.Email, u.ID); err != nil {
			return err
		}
	}
	err := s.users.Update(ctx, &next)
	metrics.Account("confirm", err)
	if err != nil {
		return err
	}
	*u = next
	return nil
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Password2   string `json:"password2" validate:"required,eqfield=Password"`
}

// ChangePassword replaces the password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, u *model.User, in ChangePasswordInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	if !u.VerifyPassword(in.OldPassword) {
		return ErrInvalidCredentials
	}
	next := *u
	if err := next.SetPassword(in.Password, s.cfg.BcryptCost); err != nil {
		return err
	}
	err := s.users.Update(ctx, &next)
	metrics.Account("change_password", err)
	if err != nil {
		return err
	}
	*u = next
	return nil
}

type ChangeEmailInput struct {
	Email    string `json:"email" validate:"required,email,max=64"`
	Password string `json:"password" validate:"required"`
}

// RequestEmailChange sends a change-email token to the new address.  The
// address is only switched once that token is confirmed.
func (s *AccountService) RequestEmailChange(ctx context.Context, u *model.User, in ChangeEmailInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return err
	}
	if !u.VerifyPassword(in.Password) {
		return ErrInvalidCredentials
	}
	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return err
	}
	tok, err := s.codec.GenerateChangeEmail(u.ID, in.Email)
	if err != nil {
		return err
	}
	s.mail.SendChangeEmail(u, in.Email, tok)
	metrics.Account("change_email_request", nil)
	return nil
}

type ResetRequestInput struct {
	Email string `json:"email" validate:"required,email,max=64"`
}

// RequestPasswordReset emails a reset token.  Unknown addresses succeed
// silently so the endpoint cannot be used to discover accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, in ResetRequestInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	tok, err := s.codec.GenerateReset(u.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}
	s.mail.SendPasswordReset(u, tok)
	metrics.Account("reset_request", nil)
	return nil
}

type ResetPasswordInput struct {
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

// ResetPassword sets a new password for the user a reset token was issued
// for.
func (s *AccountService) ResetPassword(ctx context.Context, raw string, in ResetPasswordInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	id, err := s.codec.VerifyReset(raw)
	if err != nil {
		metrics.Account("reset", err)
		return err
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return token.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if err := u.SetPassword(in.Password, s.cfg.BcryptCost); err != nil {
		return err
	}
	err = s.users.Update(ctx, u)
	metrics.Account("reset", err)
	return err
}

type ProfileInput struct {
	Name     string `json:"name" validate:"max=64"`
	Location string `json:"location" validate:"max=64"`
	AboutMe  string `json:"about_me"`
}

// UpdateProfile replaces the free-form profile fields of u.
func (s *AccountService) UpdateProfile(ctx context.Context, u *model.User, in ProfileInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	next := *u
	next.Name, next.Location, next.AboutMe = in.Name, in.Location, in.AboutMe
	if err := s.users.Update(ctx, &next); err != nil {
		return err
	}
	*u = next
	return nil
}

type AdminUpdateInput struct {
	Email     string  `json:"email" validate:"required,email,max=64"`
	Username  string  `json:"username" validate:"required,max=64,username"`
	Confirmed bool    `json:"confirmed"`
	RoleID    *uint64 `json:"role_id"` // nil keeps the current role
	Name      string  `json:"name" validate:"max=64"`
	Location  string  `json:"location" validate:"max=64"`
	AboutMe   string  `json:"about_me"`
}

// AdminUpdate lets an administrator rewrite any account.  The caller's
// ADMIN permission is checked before anything is loaded.
func (s *AccountService) AdminUpdate(ctx context.Context, caller model.Identity, id uint64, in AdminUpdateInput) (*model.User, error) {
	if !caller.Can(model.PermAdmin) {
		return nil, ErrForbidden
	}
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	email := in.Email
	if email != u.Email {
		if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
			return nil, err
		}
	}
	if in.Username != u.Username {
		if other, err := s.users.GetByUsername(ctx, in.Username); err == nil && other.ID != u.ID {
			return nil, repository.ErrUsernameExists
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if in.RoleID != nil {
		role, err := s.roles.GetByID(ctx, *in.RoleID)
		if err != nil {
			return nil, err
		}
		u.SetRole(role)
	}
	u.Email, u.Username, u.Confirmed = email, in.Username, in.Confirmed
	u.Name, u.Location, u.AboutMe = in.Name, in.Location, in.AboutMe
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user updated by admin", zap.Uint64("user_id", u.ID))
	return u, nil
}

// DeleteUser removes an account together with its follows, posts and
// comments.  Administrators cannot delete themselves.
func (s *AccountService) DeleteUser(ctx context.Context, caller model.Identity, id uint64) error {
	me, ok := model.UserOf(caller)
	if !ok {
		return ErrUnauthenticated
	}
	if !caller.IsAdministrator() {
		return ErrForbidden
	}
	if me.ID == id {
		return invalid("id", "cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted by admin", zap.Uint64("user_id", id), zap.Uint64("admin", me.ID))
	return nil
}

// Roles lists the seeded roles so administrators can pick a role id.
func (s *AccountService) Roles(ctx context.Context, caller model.Identity) ([]model.Role, error) {
	if !caller.IsAdministrator() {
		return nil, ErrForbidden
	}
	return s.roles.List(ctx)
}

// SeedRoles brings the roles table to its fixed target state.
func (s *AccountService) SeedRoles(ctx context.Context) error {
	return s.roles.InsertRoles(ctx, model.SeedRoles())
}

// ensureEmailFree fails with ErrEmailExists when email belongs to a user
// other than self.
func (s *AccountService) ensureEmailFree(ctx context.Context, email string, self uint64) error {
	other, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return repository.ErrEmailExists
	default:
		return nil
	}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
