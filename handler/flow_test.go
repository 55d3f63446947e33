package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/auth"
	"inkwell/store"
)

type testApp struct {
	e     *echo.Echo
	db    *sql.DB
	posts *store.PostStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(db, "file://../db/migrations"))
	t.Cleanup(func() { db.Close() })

	accounts := store.NewAccountStore(db)
	posts := store.NewPostStore(db)
	h := &Handler{
		Accounts:     accounts,
		Posts:        posts,
		Auth:         auth.NewService(accounts, "testsecret"),
		Log:          zerolog.Nop(),
		EnableSignup: true,
	}
	return &testApp{
		e:     NewRouter(h, "testsecret", "../templates"),
		db:    db,
		posts: posts,
	}
}

func (a *testApp) do(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func (a *testApp) register(t *testing.T, email, name string) *http.Cookie {
	t.Helper()
	rec := a.do(http.MethodPost, "/register", url.Values{
		"email":    {email},
		"name":     {name},
		"password": {"password1"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	return sessionCookie(t, rec)
}

func postFields(title string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"a subtitle"},
		"author":   {"Alice"},
		"img_url":  {"https://example.com/cover.png"},
		"body":     {"Hello **world**."},
	}
}

func jsonError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestCreateThenFetch(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/new-post", postFields("My Title"), alice)
	require.Equal(t, http.StatusFound, rec.Code)

	all, err := app.posts.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	p := all[0]
	assert.Equal(t, "My Title", p.Title)
	assert.Equal(t, "a subtitle", p.Subtitle)
	assert.NotZero(t, p.OwnerID)
	assert.NotEmpty(t, p.Date)

	rec = app.do(http.MethodGet, "/post/"+strconv.FormatInt(p.ID, 10), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "My Title")
}

func TestAnonymousCannotCreate(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/new-post", postFields("My Title"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", jsonError(t, rec))
}

func TestCreateValidation(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	fields := postFields("My Title")
	fields.Set("img_url", "not a url")
	rec := app.do(http.MethodPost, "/new-post", fields, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The form comes back with the submitted values preserved.
	assert.Contains(t, rec.Body.String(), "My Title")
}

func TestDuplicateTitleConflict(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/new-post", postFields("Same Title"), alice)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(http.MethodPost, "/new-post", postFields("Same Title"), alice)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	all, err := app.posts.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// Register Alice, create a post, then have Bob try to delete it: denied with
// a structured 401 body. Alice then deletes it herself and the post is gone.
func TestOwnershipScenario(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "a@x.com", "Alice")

	rec := app.do(http.MethodPost, "/new-post", postFields("My Title"), alice)
	require.Equal(t, http.StatusFound, rec.Code)
	all, err := app.posts.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	id := strconv.FormatInt(all[0].ID, 10)

	bob := app.register(t, "bob@x.com", "Bob")
	rec = app.do(http.MethodGet, "/delete/"+id, nil, bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "you are not allowed to do that", jsonError(t, rec))

	// Still there.
	rec = app.do(http.MethodGet, "/post/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/delete/"+id, nil, alice)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(http.MethodGet, "/post/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminMayModerateAnyPost(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/new-post", postFields("My Title"), alice)
	require.Equal(t, http.StatusFound, rec.Code)
	all, err := app.posts.All(context.Background())
	require.NoError(t, err)
	id := strconv.FormatInt(all[0].ID, 10)

	admin := app.register(t, "admin@example.com", "Mallory")
	_, err = app.db.Exec("UPDATE accounts SET admin = 1 WHERE email = ?", "admin@example.com")
	require.NoError(t, err)

	fields := postFields("Moderated Title")
	rec = app.do(http.MethodPost, "/edit-post/"+id, fields, admin)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(http.MethodGet, "/delete/"+id, nil, admin)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(http.MethodGet, "/post/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonOwnerCannotEdit(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/new-post", postFields("My Title"), alice)
	require.Equal(t, http.StatusFound, rec.Code)
	all, err := app.posts.All(context.Background())
	require.NoError(t, err)
	id := strconv.FormatInt(all[0].ID, 10)

	bob := app.register(t, "bob@example.com", "Bob")
	rec = app.do(http.MethodPost, "/edit-post/"+id, postFields("Hijacked"), bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got, err := app.posts.ByID(context.Background(), all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "My Title", got.Title)
}

func TestDeleteUnknownPost(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodGet, "/delete/4242", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/register", url.Values{
		"email":    {"alice@example.com"},
		"name":     {"Alicia"},
		"password": {"password2"},
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	// Generic message, nothing that confirms the address is taken.
	assert.Contains(t, rec.Body.String(), "could not create account")

	var count int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice@example.com", "Alice")

	wrongPassword := app.do(http.MethodPost, "/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"nope12345"},
	}, nil)
	unknownEmail := app.do(http.MethodPost, "/login", url.Values{
		"email":    {"nobody@example.com"},
		"password": {"nope12345"},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Contains(t, wrongPassword.Body.String(), "wrong email or password")
	assert.Contains(t, unknownEmail.Body.String(), "wrong email or password")
}

func TestLoginThenCreate(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodPost, "/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"password1"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = app.do(http.MethodPost, "/new-post", postFields("After Login"), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice@example.com", "Alice")

	rec := app.do(http.MethodGet, "/logout", nil, alice)
	assert.Equal(t, http.StatusFound, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)

	// Logging out without a session is a 401 from the guard, not a crash.
	rec = app.do(http.MethodGet, "/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupDisabled(t *testing.T) {
	app := newTestApp(t)
	// Rebuild the router with signup switched off.
	accounts := store.NewAccountStore(app.db)
	h := &Handler{
		Accounts:     accounts,
		Posts:        app.posts,
		Auth:         auth.NewService(accounts, "testsecret"),
		Log:          zerolog.Nop(),
		EnableSignup: false,
	}
	e := NewRouter(h, "testsecret", "../templates")

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(url.Values{
		"email":    {"alice@example.com"},
		"name":     {"Alice"},
		"password": {"password1"},
	}.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The form page is gated too, not just the submission.
	req = httptest.NewRequest(http.MethodGet, "/register", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
