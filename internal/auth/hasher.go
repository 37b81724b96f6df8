package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// hashCost は bcrypt のコスト係数です。
const hashCost = 6

// Hasher はパスワードのハッシュ化と照合を行います。
// 平文のパスワードを保存・比較することはありません。
type Hasher struct {
	cost int
}

// NewHasher は固定コストの Hasher を作成します。
func NewHasher() *Hasher {
	return &Hasher{cost: hashCost}
}

// Hash はソルト付きのダイジェストを生成します。同じ平文でも呼び出しごとに異なる値になります。
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", newError(KindUnprocessableEntity, msgPasswordTooLong)
		}
		return "", err
	}
	return string(digest), nil
}

// Verify は平文がダイジェストの元になったものかを判定します。
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
