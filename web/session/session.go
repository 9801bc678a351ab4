// Package session stores the logged-in user's snapshot in the request
// session. The snapshot is for display only; authorization re-reads the
// credential store (see middleware.RoleRequired).
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"memberhub/database/model"
)

// CookieName is the session cookie the portal issues.
const CookieName = "memberhub"

const loginUser = "LOGIN_USER"

func init() {
	gob.Register(model.User{})
}

// SetLoginUser marks the session authenticated and stores a point-in-time
// snapshot of the user.
func SetLoginUser(c *gin.Context, user *model.User) error {
	s := sessions.Default(c)
	s.Set(loginUser, *user)
	return s.Save()
}

// SetMaxAge sets the session lifetime in seconds.
func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

// GetLoginUser returns the session's user snapshot, nil when the session is
// not authenticated. The snapshot can be stale; never use it to authorize.
func GetLoginUser(c *gin.Context) *model.User {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if user, ok := obj.(model.User); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

// ClearSession destroys the session record and invalidates the cookie.
// Errors from the underlying store are returned, never swallowed.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	return nil
}
