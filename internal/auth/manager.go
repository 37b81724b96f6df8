// Package auth はセッションベースの認証（登録・ログイン・ログアウト）を提供します。
package auth

import (
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/users"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users    users.Store
	hasher   *Hasher
	sessions SessionProvider
	throttle *loginThrottle
	logger   *log.Logger
}

// NewManager は認証マネージャーを作成します。
// sessionStore は sessions.Sessions ミドルウェアに渡したストア、rdb はログイン試行制限に使う Redis です。
func NewManager(cfg *config.Config, store users.Store, sessionStore SessionRenewer, rdb redis.UniversalClient, logger *log.Logger) *Manager {
	return &Manager{
		users:    store,
		hasher:   NewHasher(),
		sessions: GinSessions(sessionStore),
		throttle: newLoginThrottle(
			rdb,
			cfg.LoginMaxAttempts,
			time.Duration(cfg.LoginWindowMinutes)*time.Minute,
			time.Duration(cfg.LoginLockMinutes)*time.Minute,
		),
		logger: logger,
	}
}

func (m *Manager) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
