package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memberhub/config"
	"memberhub/logger"
	"memberhub/web/service"
	"memberhub/web/session"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// IndexController handles the landing page and the login/logout routes.
type IndexController struct {
	BaseController

	cfg         *config.Config
	userService *service.UserService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, cfg *config.Config, us *service.UserService) *IndexController {
	a := &IndexController{cfg: cfg, userService: us}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
}

// index branches on session state: members see the members area, everyone
// else gets the landing page.
func (a *IndexController) index(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/members")
		return
	}
	html(c, "index.html", "welcome", nil)
}

func (a *IndexController) loginPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/members")
		return
	}
	html(c, "login.html", "log in", nil)
}

// login authenticates the credentials and establishes the session snapshot.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		formError(c, http.StatusBadRequest, "/login", "invalid form data")
		return
	}

	user, err := a.userService.CheckUser(form.Email, form.Password)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			formError(c, http.StatusBadRequest, "/login", ve.Error())
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
			// One message for both failures so the form does not reveal
			// which emails are registered.
			logger.Warningf("failed login for %q, IP: %q", form.Email, getRemoteIp(c))
			formError(c, http.StatusUnauthorized, "/login", "wrong email or password")
		default:
			logger.Error("login err:", err)
			formError(c, http.StatusInternalServerError, "/login", "something went wrong, try again later")
		}
		return
	}

	if err := establishSession(c, a.cfg, user); err != nil {
		logger.Error("unable to save session:", err)
		formError(c, http.StatusInternalServerError, "/login", "something went wrong, try again later")
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Email, getRemoteIp(c))
	if isAjax(c) {
		jsonMsg(c, "login successful", nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/members")
}

// logout unconditionally destroys the session record. A store failure is
// surfaced, never silently dropped.
func (a *IndexController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if err := session.ClearSession(c); err != nil {
		logger.Error("unable to destroy session:", err)
		formError(c, http.StatusInternalServerError, "/", "failed to log out, try again")
		return
	}
	if user != nil {
		logger.Infof("%s logged out successfully", user.Email)
	}
	if isAjax(c) {
		jsonMsg(c, "logged out", nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
