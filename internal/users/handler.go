package users

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListHandler は GET /api/users のハンドラーを返します。
// ログイン必須のミドルウェアの後ろに配置してください。
func ListHandler(store Store, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := store.List(c.Request.Context())
		if err != nil {
			if logger != nil {
				logger.Printf("failed to list users: %v", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Internal server error",
			})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
