package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/auth/local"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/repositories/metadata"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
	"github.com/dmitrijs2005/shiciyaji/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCatalogue struct {
	poems   []catalogue.Poem
	panicky bool
	added   *catalogue.NewPoem
}

func newFakeCatalogue() *fakeCatalogue {
	return &fakeCatalogue{poems: []catalogue.Poem{
		{ID: "1", Title: "静夜思", Author: "李白", Dynasty: "唐", Category: "唐诗", Content: "床前明月光", Tags: []string{}},
		{ID: "2", Title: "水调歌头", Author: "苏轼", Dynasty: "宋", Category: "宋词", Content: "明月几时有", Tags: []string{}},
	}}
}

func (c *fakeCatalogue) Poems(context.Context) ([]catalogue.Poem, error) {
	if c.panicky {
		panic("catalogue exploded")
	}
	return c.poems, nil
}

func (c *fakeCatalogue) Poem(_ context.Context, id string) (*catalogue.Poem, error) {
	for _, p := range c.poems {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalogue.ErrNotFound
}

func (c *fakeCatalogue) Search(ctx context.Context, p catalogue.SearchParams) ([]catalogue.Poem, error) {
	poems, err := c.Poems(ctx)
	return catalogue.Filter(poems, p), err
}

func (c *fakeCatalogue) Authors(context.Context) ([]catalogue.Author, error) {
	return []catalogue.Author{{ID: "1", Name: "李白", Dynasty: "唐", Avatar: "authors/libai.jpg"}}, nil
}

func (c *fakeCatalogue) Categories(context.Context) ([]catalogue.Category, error) {
	return []catalogue.Category{{ID: "1", Name: "唐诗"}, {ID: "2", Name: "宋词"}}, nil
}

func (c *fakeCatalogue) Stats(context.Context) (catalogue.Stats, error) {
	return catalogue.Stats{Poems: 2, Authors: 1, Categories: 2}, nil
}

func (c *fakeCatalogue) AddPoem(_ context.Context, u *auth.Identity, p catalogue.NewPoem) (*catalogue.Poem, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c.added = &p
	return &catalogue.Poem{ID: "3", Title: p.Title, CreatedBy: u.ID, Tags: []string{}}, nil
}

func (c *fakeCatalogue) AvatarURL(_ context.Context, a *catalogue.Author) string {
	return "https://signed/" + a.Avatar
}

type testServer struct {
	*Server
	store *session.Store
}

func newTestServer(t *testing.T, cat Catalogue) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := metadata.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := local.New(db, logging.Discard(), local.WithBcryptCost(bcrypt.MinCost))
	_, err = backend.SeedTestUsers(ctx)
	require.NoError(t, err)

	store := session.NewStore(backend, logging.Discard())
	<-store.Start(ctx)

	srv := NewServer("127.0.0.1:0", store, router.NewTable(router.DefaultRoutes()), cat, logging.Discard())
	return &testServer{Server: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) signIn(t *testing.T, email string) {
	t.Helper()
	_, err := ts.store.Login(context.Background(), email, local.TestUserPassword)
	require.NoError(t, err)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type pageResponse struct {
	Route       string          `json:"route"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

func TestRoot_RedirectsToLogin(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	w := ts.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGuard_AnonymousRedirectsWithTarget(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	for path, want := range map[string]string{
		"/home":     "/login?redirect=%2Fhome",
		"/add-poem": "/login?redirect=%2Fadd-poem",
		"/admin":    "/login?redirect=%2Fadmin",
	} {
		w := ts.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, want, w.Header().Get("Location"), path)
	}
}

func TestGuard_EncodedPathsStillGuarded(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	for path, want := range map[string]string{
		"/%61dmin":    "/login?redirect=%2Fadmin",
		"/%68ome":     "/login?redirect=%2Fhome",
		"/add-poe%6D": "/login?redirect=%2Fadd-poem",
	} {
		w := ts.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, want, w.Header().Get("Location"), path)
	}

	ts.signIn(t, "test@example.com")
	w := ts.do(t, http.MethodGet, "/%61dmin", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestGuard_NonAdminSentHome(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())
	ts.signIn(t, "test@example.com")

	w := ts.do(t, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestAdmin_Stats(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())
	ts.signIn(t, "admin@example.com")

	w := ts.do(t, http.MethodGet, "/admin", "")
	require.Equal(t, http.StatusOK, w.Code)

	p := decode[pageResponse](t, w)
	assert.Equal(t, "Admin", p.Route)
	assert.Equal(t, "管理 - 诗词雅集", p.Title)
	assert.JSONEq(t, `{"stats":{"poems":2,"authors":1,"categories":2},
		"categories":[{"id":"1","name":"唐诗"},{"id":"2","name":"宋词"}]}`, string(p.Data))
}

func TestLogin_ReturnsRedirect(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	w := ts.do(t, http.MethodPost, "/login?redirect=%2Fadd-poem",
		`{"email":"test@example.com","password":"123456"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		User     auth.Identity `json:"user"`
		Redirect string        `json:"redirect"`
	}](t, w)
	assert.Equal(t, "/add-poem", body.Redirect)
	assert.Equal(t, "test-user-001", body.User.ID)

	w = ts.do(t, http.MethodGet, "/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "首页 - 诗词雅集", decode[pageResponse](t, w).Title)
}

func TestLogin_Failures(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	w := ts.do(t, http.MethodPost, "/login", `{"email":"test@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errorBody{Error: "invalid_credentials", Message: "Invalid email or password."}, decode[errorBody](t, w))

	w = ts.do(t, http.MethodPost, "/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decode[errorBody](t, w).Error)

	assert.False(t, ts.store.IsAuthenticated())
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/register", `{"email":"new@example.com","password":"pw123456","displayName":"新人"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sv := decode[sessionView](t, w)
	assert.True(t, sv.IsAuthenticated)
	assert.Equal(t, "新人", sv.User.DisplayName)

	w = ts.do(t, http.MethodPost, "/register", `{"email":"test@example.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_account", decode[errorBody](t, w).Error)

	long := strings.Repeat("x", 80)
	w = ts.do(t, http.MethodPost, "/register", `{"email":"long@example.com","password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_password", decode[errorBody](t, w).Error)
}

func TestLogoutAndSession(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.signIn(t, "admin@example.com")

	w := ts.do(t, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	sv := decode[sessionView](t, w)
	assert.Equal(t, "authenticated", sv.State)
	assert.True(t, sv.IsAdmin)

	w = ts.do(t, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	sv = decode[sessionView](t, ts.do(t, http.MethodGet, "/session", ""))
	assert.Equal(t, "anonymous", sv.State)
	assert.Nil(t, sv.User)
	assert.False(t, sv.IsAuthenticated)
}

func TestPublicPages(t *testing.T) {
	ts := newTestServer(t, newFakeCatalogue())

	w := ts.do(t, http.MethodGet, "/poems?dynasty=%E5%AE%8B", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "水调歌头")
	assert.NotContains(t, w.Body.String(), "静夜思")

	w = ts.do(t, http.MethodGet, "/poem/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Data struct {
			Title   string `json:"title"`
			CanEdit bool   `json:"canEdit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "静夜思", detail.Data.Title)
	assert.False(t, detail.Data.CanEdit)

	w = ts.do(t, http.MethodGet, "/poem/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, w).Error)

	w = ts.do(t, http.MethodGet, "/authors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"avatarUrl":"https://signed/authors/libai.jpg"`)

	w = ts.do(t, http.MethodGet, "/search?keyword=%E6%98%8E%E6%9C%88", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "静夜思")
	assert.Contains(t, w.Body.String(), "水调歌头")

	w = ts.do(t, http.MethodGet, "/search", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestNotFoundPage(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/no/such/page", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	p := decode[pageResponse](t, w)
	assert.Equal(t, "NotFound", p.Route)
	assert.Equal(t, "页面未找到 - 诗词雅集", p.Title)
}

func TestAddPoem(t *testing.T) {
	cat := newFakeCatalogue()
	ts := newTestServer(t, cat)
	poem := `{"title":"登鹳雀楼","author":"王之涣","content":"白日依山尽","tags":["登高"]}`

	w := ts.do(t, http.MethodPost, "/add-poem", poem)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cat.added)

	ts.signIn(t, "test@example.com")

	w = ts.do(t, http.MethodPost, "/add-poem", `{"title":"无题"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_poem", decode[errorBody](t, w).Error)

	w = ts.do(t, http.MethodPost, "/add-poem", poem)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "test-user-001", decode[catalogue.Poem](t, w).CreatedBy)
	assert.Equal(t, []string{"登高"}, cat.added.Tags)

	w = ts.do(t, http.MethodGet, "/add-poem", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AddPoem", decode[pageResponse](t, w).Route)
}

func TestWithoutCatalogue(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/poems", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "catalogue_unavailable", decode[errorBody](t, w).Error)
}

func TestRecovery(t *testing.T) {
	cat := newFakeCatalogue()
	cat.panicky = true
	ts := newTestServer(t, cat)

	w := ts.do(t, http.MethodGet, "/poems", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal", decode[errorBody](t, w).Error)
}

func TestLoginForm(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/login?redirect=%2Fadmin", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[pageResponse](t, w)
	assert.JSONEq(t, `{"redirect":"/admin","isAuthenticated":false}`, string(p.Data))

	w = ts.do(t, http.MethodGet, "/register", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"autoSignIn":true}`, string(decode[pageResponse](t, w).Data))
}

func TestRun_StopsOnCancel(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ts.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
