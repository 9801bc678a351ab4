package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memberhub/database/model"
	"memberhub/logger"
	"memberhub/web/middleware"
	"memberhub/web/service"
	"memberhub/web/session"
)

// RoleForm carries an admin role-update request: the target is addressed by
// display name, as the portal always has.
type RoleForm struct {
	Name string `json:"name" form:"name"`
	Role string `json:"role" form:"role"`
}

// AdminController handles the admin listing and role management. Every route
// is gated on the authoritative admin role.
type AdminController struct {
	BaseController

	userService *service.UserService
}

// NewAdminController creates a new AdminController and initializes its routes.
func NewAdminController(g *gin.RouterGroup, us *service.UserService) *AdminController {
	a := &AdminController{userService: us}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	admin := g.Group("/admin")
	admin.Use(a.checkLogin, middleware.RoleRequired(a.userService, model.RoleAdmin))

	admin.GET("", a.index)
	admin.POST("/role", a.updateRole)
	admin.GET("/logs", a.logs)
}

// index lists every member's name and role.
func (a *AdminController) index(c *gin.Context) {
	users, err := a.userService.ListUsers()
	if err != nil {
		logger.Error("list users err:", err)
		formError(c, http.StatusInternalServerError, "/members", "failed to load members")
		return
	}
	html(c, "admin.html", "administration", gin.H{
		"user":  session.GetLoginUser(c),
		"users": users,
	})
}

// updateRole changes a member's role. The target's live sessions keep their
// cached role until their next role-gated request or login.
func (a *AdminController) updateRole(c *gin.Context) {
	var form RoleForm
	if err := c.ShouldBind(&form); err != nil {
		formError(c, http.StatusBadRequest, "/admin", "invalid form data")
		return
	}

	if err := a.userService.UpdateRole(form.Name, form.Role); err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			formError(c, http.StatusBadRequest, "/admin", ve.Error())
		case errors.Is(err, service.ErrUserNotFound):
			formError(c, http.StatusNotFound, "/admin", "no member with that name")
		default:
			logger.Error("update role err:", err)
			formError(c, http.StatusInternalServerError, "/admin", "failed to update role")
		}
		return
	}

	admin := session.GetLoginUser(c)
	logger.Infof("%s set role of %q to %s", admin.Email, form.Name, form.Role)
	if isAjax(c) {
		jsonMsg(c, "role updated", nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

// logs returns recent log entries for the admin view.
func (a *AdminController) logs(c *gin.Context) {
	jsonObj(c, logger.GetLogs(50, "INFO"), nil)
}
