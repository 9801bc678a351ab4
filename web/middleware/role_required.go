// Package middleware holds gin middleware shared across controllers.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memberhub/logger"
	"memberhub/web/service"
	"memberhub/web/session"
)

// RoleRequired gates a route group on the user's authoritative role. The
// session snapshot is deliberately not trusted here: the user record is
// re-read so a role downgrade takes effect on the next gated request, not at
// session expiry. On success the snapshot's cached role is refreshed.
func RoleRequired(userService *service.UserService, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		loginUser := session.GetLoginUser(c)
		if loginUser == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		user, err := userService.GetUserByEmail(loginUser.Email)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				// The account vanished under a live session.
				c.AbortWithStatus(http.StatusForbidden)
			} else {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
			return
		}

		if !allowed[user.Role] {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if user.Role != loginUser.Role {
			if err := session.SetLoginUser(c, user); err != nil {
				logger.Warning("refresh session role err:", err)
			}
		}
		c.Next()
	}
}
