// Package sessionstore は gin-contrib/sessions 用の Redis セッションストアを提供します。
//
// クッキーには署名付きのセッションIDのみを載せ、セッションの中身は Redis に保存します。
package sessionstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	gsessions "github.com/gorilla/sessions"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	defaultMaxAge    = 24 * 60 * 60
)

// RedisStore はセッションを Redis に保存する sessions.Store 実装です。
type RedisStore struct {
	rdb     redis.UniversalClient
	codecs  []securecookie.Codec
	options *gsessions.Options
	prefix  string
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。
// keyPairs は securecookie.CodecsFromPairs と同じ形式（署名鍵, 暗号化鍵, ...）です。
func NewRedisStore(rdb redis.UniversalClient, keyPairs ...[]byte) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if len(keyPairs) == 0 || len(keyPairs[0]) == 0 {
		return nil, errors.New("session signing key is required")
	}
	return &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:   "/",
			MaxAge: defaultMaxAge,
		},
		prefix: sessionKeyPrefix,
	}, nil
}

// Options はクッキー属性と保存期間を設定します。
func (s *RedisStore) Options(options sessions.Options) {
	s.options = options.ToGorillaOptions()
}

// Get はリクエスト単位でキャッシュされたセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーからセッションを復元します。
// クッキーが無い、改ざんされている、または Redis に存在しない場合は新しいセッションになります。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save はセッションを Redis に書き込み、署名付きIDのクッキーを発行します。
// MaxAge が負の場合は Redis から削除し、クッキーを失効させます。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()
	if session.Options != nil && session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.delete(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("failed to sign session id: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Renew はリクエストのセッションを Redis から削除し、値を消去します。
// IDは空になるため、次の Save で新しいIDが発行されます。
func (s *RedisStore) Renew(r *http.Request, name string) error {
	session, err := s.Get(r, name)
	if err != nil {
		return err
	}
	if session.ID != "" {
		if err := s.delete(r.Context(), session.ID); err != nil {
			return err
		}
	}
	for key := range session.Values {
		delete(session.Values, key)
	}
	session.ID = ""
	session.IsNew = true
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *gsessions.Session) (bool, error) {
	data, err := s.rdb.Get(ctx, s.key(session.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	values := make(map[interface{}]interface{})
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return false, fmt.Errorf("failed to decode session: %w", err)
	}
	session.Values = values
	return true, nil
}

func (s *RedisStore) save(ctx context.Context, session *gsessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(session.ID), buf.Bytes(), s.ttl(session)).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) ttl(session *gsessions.Session) time.Duration {
	maxAge := defaultMaxAge
	if session.Options != nil && session.Options.MaxAge > 0 {
		maxAge = session.Options.MaxAge
	}
	return time.Duration(maxAge) * time.Second
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
