package users

import (
	"context"
	"errors"
)

// EnsureUser はユーザーが存在しなければ指定のダイジェストで登録します。
// 登録した場合は created が true になります。
func EnsureUser(ctx context.Context, store Store, username, digest string) (user *User, created bool, err error) {
	if username == "" || digest == "" {
		return nil, false, errors.New("username and digest are required")
	}

	existing, err := store.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	user, err = store.Insert(ctx, username, digest)
	if errors.Is(err, ErrUsernameTaken) {
		// 別プロセスが先に登録した
		existing, err = store.FindByUsername(ctx, username)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
