package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"memberhub/config"
	"memberhub/database"
	"memberhub/logger"
	"memberhub/web/cache"
	"memberhub/web/entity"
	"memberhub/web/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	tmp, _ := os.MkdirTemp("", "memberhub-test")
	os.Setenv("MEMBERHUB_LOG_FOLDER", tmp)
	logger.InitLogger(logging.ERROR)
	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// newTestEngine builds the full router over a fresh database and the
// embedded Redis session store.
func newTestEngine(t *testing.T) *gin.Engine {
	cfg := &config.Config{
		DBFolder:       t.TempDir(),
		SessionBackend: config.SessionBackendRedis,
		SessionSecret:  "test-secret",
		SessionMaxAge:  3600,
		RolesEnabled:   true,
		AdminEmail:     "admin@example.com",
		AdminPassword:  "admin",
	}
	if err := database.InitDB(cfg); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db, _ := database.GetDB().DB()
		db.Close()
	})

	s := NewServer(cfg)
	engine, err := s.initRouter()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return engine
}

func postForm(r *gin.Engine, path string, form url.Values, c *http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c != nil {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func getPage(r *gin.Engine, path string, c *http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeMsg(t *testing.T, rec *httptest.ResponseRecorder) entity.Msg {
	var m entity.Msg
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad JSON response %q: %v", rec.Body.String(), err)
	}
	return m
}

func signup(t *testing.T, r *gin.Engine, name, email, password string) *http.Cookie {
	rec := postForm(r, "/signup", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeMsg(t, rec).Success)
	return sessionCookie(t, rec)
}

func login(t *testing.T, r *gin.Engine, email, password string) *http.Cookie {
	rec := postForm(r, "/login", url.Values{
		"email":    {email},
		"password": {password},
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeMsg(t, rec).Success)
	return sessionCookie(t, rec)
}

func TestSignupLoginMembersFlow(t *testing.T) {
	r := newTestEngine(t)

	alice := signup(t, r, "alice", "alice@x.com", "secret1")

	rec := getPage(r, "/members", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	assert.NotContains(t, rec.Body.String(), "/admin")

	// Unauthenticated browsers are sent to the login page.
	rec = getPage(r, "/members", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDuplicateSignup(t *testing.T) {
	r := newTestEngine(t)

	signup(t, r, "alice", "alice@x.com", "secret1")

	rec := postForm(r, "/signup", url.Values{
		"name":     {"alice2"},
		"email":    {"alice@x.com"},
		"password": {"other"},
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decodeMsg(t, rec).Success)
}

func TestSignupValidationMessage(t *testing.T) {
	r := newTestEngine(t)

	rec := postForm(r, "/signup", url.Values{
		"name":     {"abc-123"},
		"email":    {"a@b.com"},
		"password": {"pw"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMsg(t, rec).Msg, "name")
}

// Unknown email and wrong password must produce the same message so the
// login form cannot be used to enumerate accounts.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	r := newTestEngine(t)

	signup(t, r, "alice", "alice@x.com", "secret1")

	wrongPassword := postForm(r, "/login", url.Values{
		"email":    {"alice@x.com"},
		"password": {"secret2"},
	}, nil)
	unknownEmail := postForm(r, "/login", url.Values{
		"email":    {"bob@x.com"},
		"password": {"secret1"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, decodeMsg(t, wrongPassword).Msg, decodeMsg(t, unknownEmail).Msg)
}

func TestLogoutDestroysSession(t *testing.T) {
	r := newTestEngine(t)

	alice := signup(t, r, "alice", "alice@x.com", "secret1")

	rec := postForm(r, "/logout", nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeMsg(t, rec).Success)

	// The old token no longer resolves.
	rec = getPage(r, "/members", alice)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
}

func TestRoleChangeStaleUntilRefresh(t *testing.T) {
	r := newTestEngine(t)

	alice := signup(t, r, "alice", "alice@x.com", "secret1")

	admin := login(t, r, "admin@example.com", "admin")
	rec := getPage(r, "/admin", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")

	rec = postForm(r, "/admin/role", url.Values{
		"name": {"alice"},
		"role": {"admin"},
	}, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeMsg(t, rec).Success)

	// Alice's existing session still shows the old role on display paths.
	rec = getPage(r, "/members", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/admin")

	// A fresh login sees the new role.
	aliceAgain := login(t, r, "alice@x.com", "secret1")
	rec = getPage(r, "/members", aliceAgain)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/admin")

	// And the authoritative re-fetch admits her even on the stale session.
	rec = getPage(r, "/admin", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminForbiddenForMembers(t *testing.T) {
	r := newTestEngine(t)

	alice := signup(t, r, "alice", "alice@x.com", "secret1")

	rec := getPage(r, "/admin", alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
