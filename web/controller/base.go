// Package controller provides the HTTP handlers of the members portal:
// signup, login, the members page and the role-gated admin surface.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"memberhub/web/session"
)

// BaseController provides common functionality for all controllers,
// including the authentication gate for protected routes.
type BaseController struct{}

// checkLogin verifies the session is authenticated. Browser requests are
// redirected to the login page, ajax requests get a 401.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, "please log in again")
		} else {
			c.Redirect(http.StatusTemporaryRedirect, "/login")
		}
		c.Abort()
	} else {
		c.Next()
	}
}
