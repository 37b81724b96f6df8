package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/users"
)

type memStore struct {
	mu        sync.Mutex
	list      []users.User
	findErr   error
	insertErr error
}

func (s *memStore) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, u := range s.list {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) Insert(ctx context.Context, username, digest string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	for _, u := range s.list {
		if u.Username == username {
			return nil, users.ErrUsernameTaken
		}
	}
	user := users.User{ID: int64(len(s.list) + 1), Username: username, Digest: digest}
	s.list = append(s.list, user)
	return &user, nil
}

func (s *memStore) List(ctx context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]users.User(nil), s.list...), nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// fakeSession は1クライアント分のセッションを模したものです。
type fakeSession struct {
	values     map[any]any
	saveErr    error
	renewErr   error
	destroyErr error
	saves      int
	renews     int
	destroys   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{values: make(map[any]any)}
}

func (s *fakeSession) Get(key any) any {
	return s.values[key]
}

func (s *fakeSession) Set(key any, val any) {
	s.values[key] = val
}

func (s *fakeSession) Save() error {
	s.saves++
	return s.saveErr
}

func (s *fakeSession) Renew() error {
	s.renews++
	if s.renewErr != nil {
		return s.renewErr
	}
	s.values = make(map[any]any)
	return nil
}

func (s *fakeSession) Destroy() error {
	s.destroys++
	if s.destroyErr != nil {
		return s.destroyErr
	}
	s.values = make(map[any]any)
	return nil
}

var errStoreDown = errors.New("storage unavailable")

func newTestManager(t *testing.T, maxAttempts int) (*Manager, *memStore, *fakeSession) {
	t.Helper()
	m, store, session, _ := newTestManagerWithRedis(t, maxAttempts)
	return m, store, session
}

func newTestManagerWithRedis(t *testing.T, maxAttempts int) (*Manager, *memStore, *fakeSession, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	store := &memStore{}
	session := newFakeSession()
	m := NewManager(&config.Config{
		LoginMaxAttempts:   maxAttempts,
		LoginWindowMinutes: 15,
		LoginLockMinutes:   10,
	}, store, nil, rdb, nil)
	m.sessions = func(*gin.Context) Session { return session }
	return m, store, session, mr
}

func seedUser(t *testing.T, m *Manager, store *memStore, username, password string) users.User {
	t.Helper()
	digest, err := m.hasher.Hash(password)
	require.NoError(t, err)
	user, err := store.Insert(context.Background(), username, digest)
	require.NoError(t, err)
	return *user
}

func serve(handler gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, "/", handler)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func serveRouter(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}
