// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/session-auth/internal/auth"
	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)
	logger := log.Default()
	ctx := context.Background()

	// ユーザーストアの準備
	userStore, closeDB, err := setupUserStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}
	defer closeDB()

	if err := seedAppUser(ctx, cfg, userStore, logger); err != nil {
		log.Fatalf("Failed to seed app user: %v", err)
	}

	// Redis はセッションとログイン試行制限で共有する
	rdb, closeRedis, err := setupRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer closeRedis()

	sessionStore, err := setupSessionStore(cfg, rdb, logger)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}

	router, err := newRouter(cfg, rdb, sessionStore, userStore, logger)
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	// サーバーの起動
	addr := ":" + cfg.Port
	logger.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newRouter はミドルウェアとルーティングを設定した Gin エンジンを返します。
func newRouter(cfg *config.Config, rdb redis.UniversalClient, sessionStore *sessionstore.RedisStore, userStore users.Store, logger *log.Logger) (*gin.Engine, error) {
	// デフォルトミドルウェア: Logger, Recovery
	router := gin.Default()

	// ログイン試行制限はクライアントIPごとなので、X-Forwarded-For は設定したプロキシからのみ信頼する
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return nil, err
	}

	// セッションはRedisに保存し、クッキーには署名付きIDのみを載せる
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	router.Use(cors.New(corsConfig))

	authManager := auth.NewManager(cfg, userStore, sessionStore, rdb, logger)
	setupRoutes(router, authManager, userStore, logger)
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "session-auth-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, userStore users.Store, logger *log.Logger) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authManager.Register)
			authRoutes.POST("/login", authManager.Login)
			authRoutes.GET("/logout", authManager.Logout)
		}

		protected := api.Group("")
		protected.Use(authManager.RequireLogin())
		{
			protected.GET("/users", users.ListHandler(userStore, logger))
		}
	}
}
