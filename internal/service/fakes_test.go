package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/repository"
	"github.com/iliyamo/social-blog/internal/token"
)

type edge struct{ from, to uint64 }

type fakeFollows struct {
	mu    sync.Mutex
	edges map[edge]time.Time
	users *fakeUsers
}

func (f *fakeFollows) Follow(_ context.Context, a, b uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.edges[edge{a, b}]; !ok {
		f.edges[edge{a, b}] = time.Now()
	}
	return nil
}

func (f *fakeFollows) Unfollow(_ context.Context, a, b uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, edge{a, b})
	return nil
}

func (f *fakeFollows) IsFollowing(_ context.Context, a, b uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.edges[edge{a, b}]
	return ok, nil
}

func (f *fakeFollows) entries(match func(edge) (uint64, bool), page model.PageRequest) model.Page[model.FollowEntry] {
	f.mu.Lock()
	var items []model.FollowEntry
	for e, since := range f.edges {
		if e.from == e.to {
			continue
		}
		if id, ok := match(e); ok {
			items = append(items, model.FollowEntry{User: f.users.byID[id].Public(), Since: since})
		}
	}
	f.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].User.ID < items[j].User.ID })
	return model.NewPage(page, items, int64(len(items)))
}

func (f *fakeFollows) Followers(_ context.Context, id uint64, page model.PageRequest) (model.Page[model.FollowEntry], error) {
	return f.entries(func(e edge) (uint64, bool) { return e.from, e.to == id }, page), nil
}

func (f *fakeFollows) Following(_ context.Context, id uint64, page model.PageRequest) (model.Page[model.FollowEntry], error) {
	return f.entries(func(e edge) (uint64, bool) { return e.to, e.from == id }, page), nil
}

func (f *fakeFollows) FollowerCount(ctx context.Context, id uint64) (int64, error) {
	p, _ := f.Followers(ctx, id, model.NewPageRequest(1, 100))
	return p.Total, nil
}

func (f *fakeFollows) FollowingCount(ctx context.Context, id uint64) (int64, error) {
	p, _ := f.Following(ctx, id, model.NewPageRequest(1, 100))
	return p.Total, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]*model.User
	follows *fakeFollows
	touched map[uint64]time.Time
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
		if other.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byID[u.ID] = &cp
	f.follows.edges[edge{u.ID, u.ID}] = u.CreatedAt
	return nil
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == name })
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range f.byID {
		if id != u.ID && other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.follows.mu.Lock()
	for e := range f.follows.edges {
		if e.from == id || e.to == id {
			delete(f.follows.edges, e)
		}
	}
	f.follows.mu.Unlock()
	return nil
}

func (f *fakeUsers) Touch(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[id] = at
	return nil
}

type fakeRoles struct {
	rows []model.Role
}

func (f *fakeRoles) FindByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range f.rows {
		if r.Name == name {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoles) FindDefault(_ context.Context) (*model.Role, error) {
	for _, r := range f.rows {
		if r.IsDefault {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoles) GetByID(_ context.Context, id uint64) (*model.Role, error) {
	for _, r := range f.rows {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoles) List(context.Context) ([]model.Role, error) {
	return append([]model.Role(nil), f.rows...), nil
}

func (f *fakeRoles) InsertRoles(_ context.Context, roles []model.Role) error {
	for i := range f.rows {
		f.rows[i].IsDefault = false
	}
	for _, want := range roles {
		found := false
		for i := range f.rows {
			if f.rows[i].Name == want.Name {
				f.rows[i].Permissions, f.rows[i].IsDefault = want.Permissions, want.IsDefault
				found = true
			}
		}
		if !found {
			want.ID = uint64(len(f.rows) + 1)
			f.rows = append(f.rows, want)
		}
	}
	return nil
}

type fakePosts struct {
	mu      sync.Mutex
	rows    []*model.Post
	follows *fakeFollows
}

func (f *fakePosts) Create(_ context.Context, p *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uint64(len(f.rows) + 1)
	cp := *p
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id uint64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePosts) Update(_ context.Context, p *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == p.ID {
			cp := *p
			f.rows[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakePosts) filter(page model.PageRequest, keep func(*model.Post) bool) model.Page[model.Post] {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.Post
	for i := len(f.rows) - 1; i >= 0; i-- {
		if keep(f.rows[i]) {
			items = append(items, *f.rows[i])
		}
	}
	return model.NewPage(page, items, int64(len(items)))
}

func (f *fakePosts) List(_ context.Context, page model.PageRequest) (model.Page[model.Post], error) {
	return f.filter(page, func(*model.Post) bool { return true }), nil
}

func (f *fakePosts) ListByAuthor(_ context.Context, id uint64, page model.PageRequest) (model.Page[model.Post], error) {
	return f.filter(page, func(p *model.Post) bool { return p.AuthorID == id }), nil
}

func (f *fakePosts) FollowedPosts(ctx context.Context, id uint64, page model.PageRequest) (model.Page[model.Post], error) {
	return f.filter(page, func(p *model.Post) bool {
		ok, _ := f.follows.IsFollowing(ctx, id, p.AuthorID)
		return ok
	}), nil
}

type fakeComments struct {
	rows []*model.Comment
}

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	c.ID = uint64(len(f.rows) + 1)
	cp := *c
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id uint64) (*model.Comment, error) {
	for _, c := range f.rows {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeComments) ListForPost(_ context.Context, postID uint64, page model.PageRequest) (model.Page[model.Comment], error) {
	var items []model.Comment
	for _, c := range f.rows {
		if c.PostID == postID {
			items = append(items, *c)
		}
	}
	return model.NewPage(page, items, int64(len(items))), nil
}

func (f *fakeComments) ListAll(_ context.Context, page model.PageRequest) (model.Page[model.Comment], error) {
	items := make([]model.Comment, 0, len(f.rows))
	for _, c := range f.rows {
		items = append(items, *c)
	}
	return model.NewPage(page, items, int64(len(items))), nil
}

func (f *fakeComments) SetDisabled(_ context.Context, id uint64, disabled bool) error {
	for _, c := range f.rows {
		if c.ID == id {
			c.Disabled = disabled
			return nil
		}
	}
	return repository.ErrNotFound
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendConfirmation(u *model.User, tok string) {
	m.record(sentMail{"confirm", u.Email, tok})
}

func (m *recordingMailer) SendChangeEmail(_ *model.User, to, tok string) {
	m.record(sentMail{"change_email", to, tok})
}

func (m *recordingMailer) SendPasswordReset(u *model.User, tok string) {
	m.record(sentMail{"reset", u.Email, tok})
}

func (m *recordingMailer) record(s sentMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type harness struct {
	users    *fakeUsers
	roles    *fakeRoles
	follows  *fakeFollows
	posts    *fakePosts
	comments *fakeComments
	mail     *recordingMailer
	codec    *token.Codec
	account  *AccountService
	social   *SocialService
}

const adminEmail = "admin@example.com"

// newHarness wires both services over in-memory stores.  Roles are seeded
// unless seeded is false.
func newHarness(seeded bool) *harness {
	follows := &fakeFollows{edges: map[edge]time.Time{}}
	users := &fakeUsers{byID: map[uint64]*model.User{}, follows: follows, touched: map[uint64]time.Time{}}
	follows.users = users
	h := &harness{
		users:    users,
		roles:    &fakeRoles{},
		follows:  follows,
		posts:    &fakePosts{follows: follows},
		comments: &fakeComments{},
		mail:     &recordingMailer{},
		codec:    token.NewCodec("test-secret"),
	}
	log := zap.NewNop()
	h.account = NewAccountService(h.users, h.roles, h.codec, h.mail, AccountConfig{
		AdminEmail:    "Admin@Example.com",
		AuthTokenTTL:  time.Hour,
		ResetTokenTTL: time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}, log)
	h.social = NewSocialService(h.users, h.follows, h.posts, h.comments, PageSizes{Posts: 10, Followers: 10, Comments: 10}, log)
	if seeded {
		_ = h.account.SeedRoles(context.Background())
	}
	return h
}

// register creates a user and returns it.  When confirmed is set the
// account is confirmed through the mailed token.
func (h *harness) register(t *testing.T, email, username string, confirmed bool) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := h.account.Register(ctx, RegisterInput{Email: email, Username: username, Password: "cat", Password2: "cat"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if confirmed {
		if err := h.account.ConfirmAccount(ctx, u, h.mail.last().token); err != nil {
			t.Fatalf("confirm %s: %v", username, err)
		}
	}
	return u
}
