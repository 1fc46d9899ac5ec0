package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/config"
	"github.com/iliyamo/social-blog/internal/model"
)

type stubIdentifier struct {
	users  map[string]*model.User
	pinged []uint64
}

func (s *stubIdentifier) Identify(_ context.Context, raw string) model.Identity {
	if u, ok := s.users[raw]; ok {
		return model.Authenticated{User: u}
	}
	return model.Anonymous{}
}

func (s *stubIdentifier) Ping(_ context.Context, u *model.User) error {
	s.pinged = append(s.pinged, u.ID)
	return nil
}

func roleWith(perms ...model.Permission) *model.Role {
	r := &model.Role{Name: "test"}
	for _, p := range perms {
		r.AddPermission(p)
	}
	return r
}

func newEcho(ids Identifier, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(Authenticate(ids, zap.NewNop()))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mws...)
	return e
}

func do(e *echo.Echo, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPermissionMiddleware(t *testing.T) {
	ids := &stubIdentifier{users: map[string]*model.User{
		"writer":      {ID: 1, Confirmed: true, Role: roleWith(model.PermWrite)},
		"unconfirmed": {ID: 2, Role: roleWith(model.PermWrite)},
		"follower":    {ID: 3, Confirmed: true, Role: roleWith(model.PermFollow)},
	}}
	e := newEcho(ids, RequireAuth(), RequireConfirmed(), RequirePermission(model.PermWrite))

	cases := []struct {
		bearer string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"garbage", http.StatusUnauthorized},
		{"unconfirmed", http.StatusForbidden},
		{"follower", http.StatusForbidden},
		{"writer", http.StatusOK},
	}
	for _, tc := range cases {
		if rec := do(e, tc.bearer); rec.Code != tc.want {
			t.Fatalf("bearer %q: expected %d, got %d (%s)", tc.bearer, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestAuthenticatePingsKnownUsers(t *testing.T) {
	ids := &stubIdentifier{users: map[string]*model.User{"tok": {ID: 7}}}
	e := newEcho(ids)
	do(e, "tok")
	do(e, "")
	if len(ids.pinged) != 1 || ids.pinged[0] != 7 {
		t.Fatalf("expected exactly one ping for user 7, got %v", ids.pinged)
	}
}

func TestRequireAdmin(t *testing.T) {
	ids := &stubIdentifier{users: map[string]*model.User{
		"admin": {ID: 1, Confirmed: true, Role: roleWith(model.AllPermissions...)},
		"mod":   {ID: 2, Confirmed: true, Role: roleWith(model.PermModerate)},
	}}
	e := newEcho(ids, RequireAdmin())
	if rec := do(e, "admin"); rec.Code != http.StatusOK {
		t.Fatalf("admin refused: %d", rec.Code)
	}
	if rec := do(e, "mod"); rec.Code != http.StatusForbidden {
		t.Fatalf("moderator allowed admin route: %d", rec.Code)
	}
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimitBlocksAfterCapacity(t *testing.T) {
	rdb := newRedis(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := newEcho(&stubIdentifier{}, RateLimit(cfg, rdb, zap.NewNop(), clock))

	for i := 0; i < 2; i++ {
		if rec := do(e, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := do(e, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}

	now = now.Add(time.Minute)
	if rec := do(e, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected refill after one interval, got %d", rec.Code)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	e := newEcho(&stubIdentifier{}, RateLimit(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop(), nil))
	for i := 0; i < 3; i++ {
		if rec := do(e, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
}

func TestResponseCacheServesAnonymousHits(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	calls := 0
	e := echo.New()
	ids := &stubIdentifier{users: map[string]*model.User{"tok": {ID: 1}}}
	e.Use(Authenticate(ids, zap.NewNop()))
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, ResponseCache(cfg, rdb, zap.NewNop()))

	first := do(e, "")
	second := do(e, "")
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Header().Get("X-Cache") != "HIT" || second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical cached body, got %q vs %q", second.Body.String(), first.Body.String())
	}
	do(e, "tok")
	if calls != 2 {
		t.Fatalf("authenticated request must bypass the cache")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(201, h, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, hdr, body, ok := decodePayload(bs)
	if !ok || status != 201 || hdr.Get("Content-Type") != "application/json" || string(body) != `{"a":1}` {
		t.Fatalf("unexpected decode %d %v %q %v", status, hdr, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatalf("short payload decoded")
	}
}
