package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/storage"
	"github.com/yourusername/session-auth/internal/users"
)

func setupUserStore(ctx context.Context, cfg *config.Config) (*users.SQLiteStore, func(), error) {
	db, err := storage.OpenSQLite(ctx, cfg.DatabasePath, users.Schema...)
	if err != nil {
		return nil, nil, err
	}
	return users.NewSQLiteStore(db), func() { _ = db.Close() }, nil
}

func setupRedis(cfg *config.Config) (*redis.Client, func(), error) {
	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	return rdb, func() { _ = rdb.Close() }, nil
}

func setupSessionStore(cfg *config.Config, rdb redis.UniversalClient, logger *log.Logger) (*sessionstore.RedisStore, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// 開発用: 再起動すると既存のセッションは無効になる
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		logger.Printf("SESSION_SECRET is not set; using a random key for this process")
	}
	return sessionstore.NewRedisStore(rdb, secret)
}

// seedAppUser は APP_USERNAME が設定されていれば初期ユーザーを登録します。
func seedAppUser(ctx context.Context, cfg *config.Config, store users.Store, logger *log.Logger) error {
	if cfg.AppUsername == "" {
		return nil
	}
	user, created, err := users.EnsureUser(ctx, store, cfg.AppUsername, cfg.AppPasswordHash)
	if err != nil {
		return err
	}
	if created {
		logger.Printf("seeded app user %q (id=%d)", user.Username, user.ID)
	}
	return nil
}
