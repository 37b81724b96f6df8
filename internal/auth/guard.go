package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/users"
)

// minPasswordLength 以下の文字数のパスワードは受け付けない。
const minPasswordLength = 3

// authRequest はガードとハンドラーが共有するリクエスト単位の状態です。
type authRequest struct {
	Username string
	Password string
	ClientIP string

	// User は checkUsernameExists が見つけたユーザーです。
	User *users.User
}

// guard は前提条件のチェックです。nil を返せば次へ進み、エラーを返せばそこで打ち切ります。
type guard func(ctx context.Context, req *authRequest) error

// runGuards はガードを順に実行し、最初に失敗したガードのエラーを返します。
func runGuards(ctx context.Context, req *authRequest, guards ...guard) error {
	for _, g := range guards {
		if err := g(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type credentialsBody struct {
	Username any `json:"username"`
	Password any `json:"password"`
}

// bindCredentials はJSONボディを読み取ります。
// 文字列以外の username/password は未指定として扱い、空ボディは {} とみなします。
func bindCredentials(c *gin.Context) (*authRequest, error) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(KindBadRequest, msgInvalidBody)
	}

	req := &authRequest{ClientIP: c.ClientIP()}
	req.Username, _ = body.Username.(string)
	req.Password, _ = body.Password.(string)
	return req, nil
}

func checkPasswordLength(_ context.Context, req *authRequest) error {
	if utf8.RuneCountInString(req.Password) <= minPasswordLength {
		return newError(KindUnprocessableEntity, msgPasswordTooShort)
	}
	return nil
}

func checkUsernamePresent(_ context.Context, req *authRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return newError(KindUnprocessableEntity, msgUsernameRequired)
	}
	return nil
}

// checkUsernameFree は事前チェックにすぎない。一意性はストアの制約で保証する。
func (m *Manager) checkUsernameFree(ctx context.Context, req *authRequest) error {
	user, err := m.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if user != nil {
		return newError(KindConflict, msgUsernameTaken)
	}
	return nil
}

func (m *Manager) checkUsernameExists(ctx context.Context, req *authRequest) error {
	user, err := m.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return newError(KindUnauthorized, msgInvalidCredentials)
	}
	req.User = user
	return nil
}

func (m *Manager) checkLoginThrottle(ctx context.Context, req *authRequest) error {
	retryAfter, err := m.throttle.checkLock(ctx, req.ClientIP)
	if err != nil {
		return err
	}
	if retryAfter > 0 {
		return &Error{
			Kind:       KindTooManyRequests,
			Message:    msgTooManyAttempts,
			RetryAfter: retryAfter,
		}
	}
	return nil
}
