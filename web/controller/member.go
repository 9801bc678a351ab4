package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memberhub/config"
	"memberhub/logger"
	"memberhub/util/random"
	"memberhub/web/service"
	"memberhub/web/session"
)

// memberImages are the asset images the members page rotates through.
var memberImages = []string{
	"images/member1.svg",
	"images/member2.svg",
	"images/member3.svg",
}

// SignupForm represents the signup request structure.
type SignupForm struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// MemberController handles signup and the members-only page.
type MemberController struct {
	BaseController

	cfg         *config.Config
	userService *service.UserService
}

// NewMemberController creates a new MemberController and initializes its routes.
func NewMemberController(g *gin.RouterGroup, cfg *config.Config, us *service.UserService) *MemberController {
	a := &MemberController{cfg: cfg, userService: us}
	a.initRouter(g)
	return a
}

func (a *MemberController) initRouter(g *gin.RouterGroup) {
	g.GET("/signup", a.signupPage)
	g.POST("/signup", a.signup)
	g.GET("/members", a.checkLogin, a.members)
}

func (a *MemberController) signupPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/members")
		return
	}
	html(c, "signup.html", "create account", nil)
}

// signup creates the member record and logs the new member in.
func (a *MemberController) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		formError(c, http.StatusBadRequest, "/signup", "invalid form data")
		return
	}

	user, err := a.userService.SignUp(form.Name, form.Email, form.Password)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			formError(c, http.StatusBadRequest, "/signup", ve.Error())
		case errors.Is(err, service.ErrEmailTaken):
			formError(c, http.StatusConflict, "/signup", "that email is already registered")
		default:
			logger.Error("signup err:", err)
			formError(c, http.StatusInternalServerError, "/signup", "something went wrong, try again later")
		}
		return
	}

	if err := establishSession(c, a.cfg, user); err != nil {
		logger.Error("unable to save session:", err)
		formError(c, http.StatusInternalServerError, "/login", "account created, please log in")
		return
	}

	logger.Infof("new member %s (%s), IP: %s", user.Name, user.Email, getRemoteIp(c))
	if isAjax(c) {
		jsonMsg(c, "signup successful", nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/members")
}

// members renders the members page with a random image from the asset set.
func (a *MemberController) members(c *gin.Context) {
	user := session.GetLoginUser(c)
	html(c, "members.html", "members area", gin.H{
		"user":  user,
		"image": memberImages[random.Num(len(memberImages))],
	})
}
