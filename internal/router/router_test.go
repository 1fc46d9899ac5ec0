package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/handler"
	"github.com/iliyamo/social-blog/internal/middleware"
	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/service"
)

type stubAccounts struct{ handler.Accounts }

func (stubAccounts) AdminUpdate(_ context.Context, _ model.Identity, id uint64, _ service.AdminUpdateInput) (*model.User, error) {
	return &model.User{ID: id}, nil
}

func (stubAccounts) DeleteUser(context.Context, model.Identity, uint64) error { return nil }

func (stubAccounts) Roles(context.Context, model.Identity) ([]model.Role, error) {
	return model.SeedRoles(), nil
}

type stubSocial struct{ handler.Social }

func (stubSocial) Posts(_ context.Context, page int) (model.Page[model.Post], error) {
	return model.NewPage[model.Post](model.NewPageRequest(page, 10), nil, 0), nil
}

func (stubSocial) Feed(_ context.Context, _ model.Identity, page int) (model.Page[model.Post], error) {
	return model.NewPage[model.Post](model.NewPageRequest(page, 10), nil, 0), nil
}

func (stubSocial) CreatePost(context.Context, model.Identity, service.PostInput) (*model.Post, error) {
	return &model.Post{ID: 1}, nil
}

func (stubSocial) ModerationQueue(_ context.Context, _ model.Identity, page int) (model.Page[model.Comment], error) {
	return model.NewPage[model.Comment](model.NewPageRequest(page, 10), nil, 0), nil
}

type stubIdentifier map[string]*model.User

func (s stubIdentifier) Identify(_ context.Context, raw string) model.Identity {
	if u, ok := s[raw]; ok {
		return model.Authenticated{User: u}
	}
	return model.Anonymous{}
}

func (stubIdentifier) Ping(context.Context, *model.User) error { return nil }

func userWith(id uint64, confirmed bool, perms ...model.Permission) *model.User {
	r := &model.Role{Name: "test"}
	for _, p := range perms {
		r.AddPermission(p)
	}
	return &model.User{ID: id, Username: "u", Confirmed: confirmed, Role: r}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	log := zap.NewNop()
	ids := stubIdentifier{
		"pending":   userWith(1, false, model.PermFollow, model.PermComment, model.PermWrite),
		"reader":    userWith(2, true, model.PermFollow),
		"writer":    userWith(3, true, model.PermFollow, model.PermComment, model.PermWrite),
		"moderator": userWith(4, true, model.PermFollow, model.PermComment, model.PermWrite, model.PermModerate),
		"admin":     userWith(5, true, model.AllPermissions...),
	}
	a := handler.NewAuthHandler(stubAccounts{}, log)
	u := handler.NewUserHandler(stubSocial{}, log)
	p := handler.NewPostHandler(stubSocial{}, log)

	e := echo.New()
	e.Use(middleware.Authenticate(ids, log))
	RegisterAuth(e, a, passThrough)
	RegisterPublic(e, u, p, passThrough)
	RegisterSocial(e, u, p)
	RegisterModeration(e, a, p)
	return e
}

func TestRouteGating(t *testing.T) {
	e := newServer()
	cases := []struct {
		method, path, body, bearer string
		want                       int
	}{
		{http.MethodGet, "/v1/posts", "", "", http.StatusOK},
		{http.MethodGet, "/v1/feed", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/feed", "", "pending", http.StatusForbidden},
		{http.MethodGet, "/v1/feed", "", "reader", http.StatusOK},
		{http.MethodPost, "/v1/posts", `{"body":"hi"}`, "", http.StatusUnauthorized},
		{http.MethodPost, "/v1/posts", `{"body":"hi"}`, "pending", http.StatusForbidden},
		{http.MethodPost, "/v1/posts", `{"body":"hi"}`, "reader", http.StatusForbidden},
		{http.MethodPost, "/v1/posts", `{"body":"hi"}`, "writer", http.StatusCreated},
		{http.MethodGet, "/v1/moderate/comments", "", "writer", http.StatusForbidden},
		{http.MethodGet, "/v1/moderate/comments", "", "moderator", http.StatusOK},
		{http.MethodPut, "/v1/admin/users/9", `{}`, "moderator", http.StatusForbidden},
		{http.MethodPut, "/v1/admin/users/9", `{}`, "admin", http.StatusOK},
		{http.MethodDelete, "/v1/admin/users/9", "", "writer", http.StatusForbidden},
		{http.MethodDelete, "/v1/admin/users/9", "", "admin", http.StatusNoContent},
		{http.MethodGet, "/v1/admin/roles", "", "admin", http.StatusOK},
		{http.MethodGet, "/v1/me", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/me", "", "pending", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		if tc.body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		if tc.bearer != "" {
			req.Header.Set("Authorization", "Bearer "+tc.bearer)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s as %q: expected %d, got %d (%s)", tc.method, tc.path, tc.bearer, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestUnknownPathsAreNotFound(t *testing.T) {
	e := newServer()
	for _, path := range []string{"/v1/nope", "/v1/posts/1/nope", "/v1/users/bob/nope"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}
}
