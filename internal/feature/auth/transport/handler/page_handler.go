package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"natours_backend/internal/feature/auth/transport/middleware"
	"natours_backend/internal/platform/http/views"
)

// PageHandler renders the server-side account pages.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Login renders the login form. A visitor who is already logged in sees a notice.
func (h *PageHandler) Login(c *gin.Context) {
	data := gin.H{"title": "Log into your account"}
	if user, ok := middleware.CurrentUser(c); ok {
		data["user"] = user
	}
	c.HTML(http.StatusOK, views.Login, data)
}

// Account renders the account page of the logged-in user.
func (h *PageHandler) Account(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, views.Account, gin.H{"title": "Your account", "user": user})
}
