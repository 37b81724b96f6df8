package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	msgUsernameTaken      = "Username taken"
	msgUsernameRequired   = "Username is required"
	msgPasswordTooShort   = "Password must be longer than 3 chars"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgInvalidCredentials = "Invalid credentials"
	msgTooManyAttempts    = "Too many login attempts"
	msgInvalidBody        = "Request body must be a JSON object"
	msgNotLoggedIn        = "You shall not pass!"
	msgInternal           = "Internal server error"
)

// Kind はエラーの分類です。
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindConflict
	KindUnprocessableEntity
	KindTooManyRequests
)

// Status は分類に対応するHTTPステータスを返します。
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict, KindUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error はクライアントに返す分類済みのエラーです。
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf は err の分類を返します。*Error 以外はすべて KindInternal です。
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// respondWithError は err を {"message": ...} 形式のレスポンスに変換します。
// 未分類のエラーはログに残し、詳細を伏せて 500 を返します。
func (m *Manager) respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind != KindInternal {
		if apiErr.RetryAfter > 0 {
			// Retry-After は秒数で返す
			c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(apiErr.RetryAfter.Seconds())), 10))
		}
		c.AbortWithStatusJSON(apiErr.Kind.Status(), gin.H{"message": apiErr.Message})
		return
	}

	m.logf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
}
