package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/store"
)

type mapDirectory map[int64]*store.User

func (d mapDirectory) GetByID(_ context.Context, id int64) (*store.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

type stubLoader struct {
	user *store.User
	err  error
}

func (s stubLoader) Load(context.Context, string) (*store.User, error) {
	return s.user, s.err
}

func newTestLoader(t *testing.T, dir store.Directory) (*RedisLoader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := NewRedisLoaderWithClient(client, "test:", dir, zap.NewNop())
	t.Cleanup(func() { _ = loader.Close() })
	return loader, mr
}

func TestRedisLoaderLoad(t *testing.T) {
	dir := mapDirectory{42: {ID: 42, Name: "alice"}}
	loader, mr := newTestLoader(t, dir)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:session:abc", "42"))
	require.NoError(t, mr.Set("test:session:gone", "99"))
	require.NoError(t, mr.Set("test:session:junk", "not-a-number"))

	user, err := loader.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)

	_, err = loader.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = loader.Load(ctx, "gone")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = loader.Load(ctx, "junk")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSession))
}

func TestRedisLoaderExpiredSession(t *testing.T) {
	loader, mr := newTestLoader(t, mapDirectory{42: {ID: 42}})

	require.NoError(t, mr.Set("test:session:abc", "42"))
	mr.SetTTL("test:session:abc", time.Minute)
	mr.FastForward(2 * time.Minute)

	_, err := loader.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMiddleware(t *testing.T) {
	alice := &store.User{ID: 42, Name: "alice"}

	tests := []struct {
		name      string
		loader    Loader
		cookie    string
		principal *store.User
	}{
		{name: "no cookie", loader: stubLoader{user: alice}},
		{name: "valid session", loader: stubLoader{user: alice}, cookie: "abc", principal: alice},
		{name: "unknown session", loader: stubLoader{err: ErrNoSession}, cookie: "abc"},
		{name: "lookup failure stays anonymous", loader: stubLoader{err: errors.New("redis down")}, cookie: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Locals
			var attached bool
			h := Middleware(tt.loader, "sid", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, attached = LocalsFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sid", Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.True(t, attached, "locals must always be attached")
			assert.Equal(t, tt.principal, got.Principal())
		})
	}
}

func TestLocalsFromContextMissing(t *testing.T) {
	_, ok := LocalsFromContext(context.Background())
	assert.False(t, ok)

	var l *Locals
	assert.Nil(t, l.Principal())
}

func TestAnonymousMiddleware(t *testing.T) {
	var got *Locals
	var ok bool
	h := AnonymousMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = LocalsFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.Nil(t, got.Principal())
}
