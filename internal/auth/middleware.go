package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Middleware 从 cookie 中解析会话，未登录返回 401
func Middleware(store *SessionStore, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		session, err := store.Get(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireCapability 校验当前会话角色拥有指定能力，否则返回 403
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !Can(session.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

// CurrentSession 获取中间件写入的会话
func CurrentSession(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*Session)
	return session, ok
}
