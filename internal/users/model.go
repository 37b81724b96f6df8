// Package users はユーザーの永続化とユーザー一覧APIを提供します。
package users

import (
	"context"
	"errors"
)

// ErrUsernameTaken はユーザー名の一意制約に違反したときに返されます。
var ErrUsernameTaken = errors.New("users: username already exists")

// User は登録済みユーザーを表します。
// Digest はサーバー内部でのみ扱い、レスポンスには含めません。
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Digest   string `json:"-"`
}

// Store はユーザーの検索と登録を行う外部ストアです。
type Store interface {
	// FindByUsername は該当ユーザーが存在しない場合 (nil, nil) を返します。
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Insert はIDを採番して登録したユーザーを返します。
	Insert(ctx context.Context, username, digest string) (*User, error)
	List(ctx context.Context) ([]User, error)
}
