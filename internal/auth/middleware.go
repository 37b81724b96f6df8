package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/users"
)

// RequireLogin はセッションにログイン済みユーザーが無いリクエストを 401 で止めるミドルウェアです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionUser(m.sessions(c))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": msgNotLoggedIn,
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser は RequireLogin が設定したユーザーを返します。
func CurrentUser(c *gin.Context) (users.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return users.User{}, false
	}
	user, ok := v.(users.User)
	return user, ok
}
