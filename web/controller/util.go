package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"memberhub/config"
	"memberhub/database/model"
	"memberhub/logger"
	"memberhub/web/entity"
	"memberhub/web/session"
)

// establishSession fixes the session lifetime and stores the user snapshot.
func establishSession(c *gin.Context, cfg *config.Config, user *model.User) error {
	if err := session.SetMaxAge(c, cfg.SessionMaxAge); err != nil {
		return err
	}
	return session.SetLoginUser(c, user)
}

// getRemoteIp extracts the real IP address from the request headers or
// remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return ips[0]
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonMsg sends a JSON response with a message and error status.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
	} else {
		m.Success = false
		m.Msg = msg + " (" + err.Error() + ")"
		logger.Warning(msg+" failed: ", err)
	}
	c.JSON(http.StatusOK, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders an HTML template with the provided data and title.
func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["cur_ver"] = config.GetVersion()
	c.HTML(http.StatusOK, name, data)
}

// formError answers a failed form submission: ajax callers get the message
// as JSON, browsers get the error page with a link back to the form.
func formError(c *gin.Context, statusCode int, backPath, msg string) {
	if isAjax(c) {
		pureJsonMsg(c, statusCode, false, msg)
		return
	}
	c.HTML(statusCode, "error.html", gin.H{
		"title":     "error",
		"cur_ver":   config.GetVersion(),
		"message":   msg,
		"back_path": backPath,
	})
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
