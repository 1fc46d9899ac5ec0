package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/middleware"
	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/service"
	"github.com/iliyamo/social-blog/internal/token"
)

// Accounts is the account workflow surface the handlers drive.
// *service.AccountService implements it.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	IssueAuthToken(u *model.User) (token.AuthToken, error)
	ResendConfirmation(ctx context.Context, u *model.User) error
	ConfirmAccount(ctx context.Context, u *model.User, raw string) error
	ChangePassword(ctx context.Context, u *model.User, in service.ChangePasswordInput) error
	RequestEmailChange(ctx context.Context, u *model.User, in service.ChangeEmailInput) error
	RequestPasswordReset(ctx context.Context, in service.ResetRequestInput) error
	ResetPassword(ctx context.Context, raw string, in service.ResetPasswordInput) error
	UpdateProfile(ctx context.Context, u *model.User, in service.ProfileInput) error
	AdminUpdate(ctx context.Context, caller model.Identity, id uint64, in service.AdminUpdateInput) (*model.User, error)
	DeleteUser(ctx context.Context, caller model.Identity, id uint64) error
	Roles(ctx context.Context, caller model.Identity) ([]model.Role, error)
}

// AuthHandler serves registration, login and the email based account
// flows.
type AuthHandler struct {
	accounts Accounts
	log      *zap.Logger
}

func NewAuthHandler(accounts Accounts, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and queues its confirmation email.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Register(ctx, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    u,
		"message": "a confirmation email has been sent",
	})
}

// Login exchanges email and password for an authentication token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	tok, err := h.accounts.IssueAuthToken(u)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp,
		"user":       u,
	})
}

// Me returns the caller's own account.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, u)
}

// ResendConfirmation mails a fresh confirmation token.
func (h *AuthHandler) ResendConfirmation(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.ResendConfirmation(ctx, u); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "a new confirmation email has been sent"})
}

// Confirm applies the confirmation or change-email token in the path to
// the caller's account.
func (h *AuthHandler) Confirm(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.ConfirmAccount(ctx, u, c.Param("token")); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account confirmed", "user": u})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req service.ChangePasswordInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.ChangePassword(ctx, u, req); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *AuthHandler) ChangeEmail(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req service.ChangeEmailInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.RequestEmailChange(ctx, u, req); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "a confirmation email has been sent to the new address"})
}

// RequestReset always answers 202 for a well formed address.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req service.ResetRequestInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.RequestPasswordReset(ctx, req); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the address is registered a reset email has been sent"})
}

func (h *AuthHandler) Reset(c echo.Context) error {
	var req service.ResetPasswordInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.ResetPassword(ctx, c.Param("token"), req); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset"})
}

// UpdateProfile replaces the caller's name, location and about text.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.UpdateProfile(ctx, u, req); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// AdminUpdateUser lets an administrator edit any account.
func (h *AuthHandler) AdminUpdateUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req service.AdminUpdateInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.AdminUpdate(ctx, middleware.Identity(c), id, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// AdminDeleteUser removes an account and everything it owns.
func (h *AuthHandler) AdminDeleteUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.DeleteUser(ctx, middleware.Identity(c), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Roles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.accounts.Roles(ctx, middleware.Identity(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, roles)
}
