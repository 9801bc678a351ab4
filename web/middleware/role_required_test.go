package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"

	"memberhub/config"
	"memberhub/database"
	"memberhub/database/model"
	"memberhub/logger"
	"memberhub/web/service"
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

func setupDB(t *testing.T) {
	cfg := &config.Config{DBFolder: t.TempDir()}
	if err := database.InitDB(cfg); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db, _ := database.GetDB().DB()
		db.Close()
	})
}

func createUser(t *testing.T, name, email, role string) {
	u := &model.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	if err := database.GetDB().Create(u).Error; err != nil {
		t.Fatal(err)
	}
}

// setupRouter wires a cookie session, a seeding endpoint that plants an
// arbitrary (possibly stale) user snapshot, and a role-gated endpoint.
func setupRouter(us *service.UserService) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions(session.CookieName, cookie.NewStore([]byte("test-secret"))))

	r.GET("/seed", func(c *gin.Context) {
		u := &model.User{
			Name:  c.Query("name"),
			Email: c.Query("email"),
			Role:  c.Query("role"),
		}
		if err := session.SetLoginUser(c, u); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/whoami", func(c *gin.Context) {
		u := session.GetLoginUser(c)
		if u == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.String(http.StatusOK, u.Role)
	})

	gated := r.Group("/gated")
	gated.Use(RoleRequired(us, model.RoleAdmin))
	gated.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}

func seedSession(t *testing.T, r *gin.Engine, name, email, role string) *http.Cookie {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/seed?name="+name+"&email="+email+"&role="+role, nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed returned %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("seed set no session cookie")
	}
	return cookies[0]
}

func get(r *gin.Engine, path string, c *http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)
	return rec
}

// A session whose snapshot claims admin is still rejected when the stored
// role says user: the middleware trusts only the re-fetched record.
func TestRoleRequiredStaleSnapshotDenied(t *testing.T) {
	setupDB(t)
	createUser(t, "alice", "alice@x.com", model.RoleUser)

	us := &service.UserService{}
	r := setupRouter(us)

	c := seedSession(t, r, "alice", "alice@x.com", model.RoleAdmin)
	rec := get(r, "/gated", c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("gated returned %d, expected 403", rec.Code)
	}
}

// A stale user snapshot does not block a real admin, and the cached role is
// refreshed to the authoritative value on the way through.
func TestRoleRequiredRefreshesSnapshot(t *testing.T) {
	setupDB(t)
	createUser(t, "root", "root@x.com", model.RoleAdmin)

	us := &service.UserService{}
	r := setupRouter(us)

	c := seedSession(t, r, "root", "root@x.com", model.RoleUser)
	rec := get(r, "/gated", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("gated returned %d, expected 200", rec.Code)
	}

	// The refreshed snapshot rides back on the response cookie.
	refreshed := c
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			refreshed = ck
		}
	}
	rec = get(r, "/whoami", refreshed)
	if rec.Code != http.StatusOK || rec.Body.String() != model.RoleAdmin {
		t.Fatalf("whoami = %d %q, expected 200 admin", rec.Code, rec.Body.String())
	}
}

func TestRoleRequiredDeletedUserForbidden(t *testing.T) {
	setupDB(t)

	us := &service.UserService{}
	r := setupRouter(us)

	c := seedSession(t, r, "ghost", "ghost@x.com", model.RoleAdmin)
	rec := get(r, "/gated", c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("gated returned %d, expected 403", rec.Code)
	}
}

func TestRoleRequiredNoSession(t *testing.T) {
	setupDB(t)

	us := &service.UserService{}
	r := setupRouter(us)

	rec := get(r, "/gated", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("gated returned %d, expected 401", rec.Code)
	}
}
