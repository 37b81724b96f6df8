package auth

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/users"
)

const (
	// SessionCookieName はセッションIDを運ぶクッキー名です。
	SessionCookieName = "chocolatechip"
	sessionKeyUser    = "user"
)

func init() {
	// セッションストアは値を gob でシリアライズする
	gob.Register(users.User{})
}

// Session は1リクエスト分のセッション状態です。
type Session interface {
	Get(key any) any
	Set(key any, val any)
	Save() error
	// Renew は現在のセッションをストアから破棄して値を消去し、次の Save で新しいIDを発行させます。
	Renew() error
	// Destroy はすべての値を消去し、ストア上のセッションも破棄します。
	Destroy() error
}

// SessionProvider はリクエストに対応する Session を返します。
type SessionProvider func(c *gin.Context) Session

// SessionRenewer はセッションIDを振り直せるセッションストアです。
type SessionRenewer interface {
	Renew(r *http.Request, name string) error
}

// GinSessions は gin-contrib/sessions のミドルウェアが用意したセッションを返す SessionProvider です。
// store はミドルウェアに渡したものと同じストアである必要があります。
func GinSessions(store SessionRenewer) SessionProvider {
	return func(c *gin.Context) Session {
		return ginSession{s: sessions.Default(c), c: c, store: store}
	}
}

type ginSession struct {
	s     sessions.Session
	c     *gin.Context
	store SessionRenewer
}

func (g ginSession) Get(key any) any {
	return g.s.Get(key)
}

func (g ginSession) Set(key any, val any) {
	g.s.Set(key, val)
}

func (g ginSession) Save() error {
	return g.s.Save()
}

func (g ginSession) Renew() error {
	// ストアはリクエスト単位でセッションをキャッシュしているため、
	// g.s が保持するセッションと同じものが振り直される
	return g.store.Renew(g.c.Request, SessionCookieName)
}

func (g ginSession) Destroy() error {
	g.s.Clear()
	g.s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return g.s.Save()
}

func sessionUser(s Session) (users.User, bool) {
	switch v := s.Get(sessionKeyUser).(type) {
	case users.User:
		return v, true
	case *users.User:
		if v != nil {
			return *v, true
		}
	}
	return users.User{}, false
}
