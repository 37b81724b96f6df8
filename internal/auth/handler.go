package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/users"
)

// Register は POST /api/auth/register のハンドラーです。
// 登録してもログイン状態にはなりません。
func (m *Manager) Register(c *gin.Context) {
	req, err := bindCredentials(c)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := runGuards(ctx, req, checkPasswordLength, checkUsernamePresent, m.checkUsernameFree); err != nil {
		m.respondWithError(c, err)
		return
	}

	digest, err := m.hasher.Hash(req.Password)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	user, err := m.users.Insert(ctx, req.Username, digest)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			// 同名の同時登録に負けた
			err = newError(KindConflict, msgUsernameTaken)
		}
		m.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login は POST /api/auth/login のハンドラーです。
// ログインのたびにセッションIDを振り直し、ログイン前のIDは無効になります。
func (m *Manager) Login(c *gin.Context) {
	req, err := bindCredentials(c)
	if err != nil {
		m.respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := runGuards(ctx, req, m.checkLoginThrottle, m.checkUsernameExists); err != nil {
		if KindOf(err) == KindUnauthorized {
			m.recordLoginFailure(ctx, req.ClientIP)
		}
		m.respondWithError(c, err)
		return
	}

	if !m.hasher.Verify(req.Password, req.User.Digest) {
		m.recordLoginFailure(ctx, req.ClientIP)
		m.respondWithError(c, newError(KindUnauthorized, msgInvalidCredentials))
		return
	}

	if err := m.throttle.reset(ctx, req.ClientIP); err != nil {
		m.logf("failed to reset login throttle ip=%s: %v", req.ClientIP, err)
	}

	session := m.sessions(c)
	if err := session.Renew(); err != nil {
		m.respondWithError(c, err)
		return
	}
	session.Set(sessionKeyUser, *req.User)
	if err := session.Save(); err != nil {
		m.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Welcome " + req.User.Username})
}

// recordLoginFailure は試行制限の記録に失敗してもレスポンスは 401 のままにする。
func (m *Manager) recordLoginFailure(ctx context.Context, ip string) {
	if err := m.throttle.recordFailure(ctx, ip); err != nil {
		m.logf("failed to record login failure ip=%s: %v", ip, err)
	}
}

// Logout は GET /api/auth/logout のハンドラーです。
// 未ログインの場合はセッションを破棄せずに "no session" を返します。
func (m *Manager) Logout(c *gin.Context) {
	session := m.sessions(c)
	if session.Get(sessionKeyUser) == nil {
		c.JSON(http.StatusOK, gin.H{"message": "no session"})
		return
	}

	if err := session.Destroy(); err != nil {
		m.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
