package handler

import (
	"net/http"
	"strings"

	"github.com/blues/civicops/internal/auth"
	"github.com/gin-gonic/gin"
)

// AuthHandler 登录会话处理器
type AuthHandler struct {
	sessions   *auth.SessionStore
	cookieName string
	secure     bool
}

// NewAuthHandler 创建登录会话处理器
func NewAuthHandler(sessions *auth.SessionStore, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Login 登录并写入会话 cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		ErrorResponse(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	session, err := h.sessions.Login(req.Username, req.Password)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.Token, int(h.sessions.TTL().Seconds()), "/", "", h.secure, true)
	c.JSON(http.StatusOK, ToSessionResponse(session))
}

// Logout 注销当前会话
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil {
		h.sessions.Logout(token)
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Me 返回当前会话信息
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := auth.CurrentSession(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, ToSessionResponse(session))
}
