package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/session"
	"github.com/ebogdum/levelgate/store"
)

// fakeDirectory is an in-memory user directory that records lookups
type fakeDirectory struct {
	users   map[int64]*store.User
	err     error
	lookups []int64
}

func (d *fakeDirectory) GetByID(_ context.Context, id int64) (*store.User, error) {
	d.lookups = append(d.lookups, id)
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func strPtr(s string) *string { return &s }

func newDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[int64]*store.User{
		42: {ID: 42, Name: "alice", Preferences: store.Preferences{AuthKey: strPtr("secretkey"), TrackLevel: strPtr("editor")}},
		7:  {ID: 7, Name: "bob", Preferences: store.Preferences{AuthKey: strPtr("right")}},
		8:  {ID: 8, Name: "carol", Preferences: store.Preferences{AuthKey: strPtr(""), TrackLevel: strPtr("admin")}},
		9:  {ID: 9, Name: "dave"},
		10: {ID: 10, Name: "erin", Preferences: store.Preferences{AuthKey: strPtr("k"), TrackLevel: strPtr("")}},
	}}
}

func resolve(t *testing.T, dir UserDirectory, req *http.Request) Outcome {
	t.Helper()
	out, err := NewResolver(dir, zap.NewNop()).Resolve(req.Context(), req)
	require.NoError(t, err)
	return out
}

func assertGranted(t *testing.T, out Outcome, level Level, userID int64) {
	t.Helper()
	require.True(t, out.OK(), "unexpected failure: %+v", out.Failure)
	assert.Equal(t, level, out.Level)
	require.NotNil(t, out.UserID)
	assert.Equal(t, userID, *out.UserID)
}

func assertDenied(t *testing.T, out Outcome, message string) {
	t.Helper()
	require.NotNil(t, out.Failure)
	assert.Equal(t, message, out.Failure.Message)
	assert.Empty(t, out.Level)
	assert.Nil(t, out.UserID)
}

func TestResolveQueryPair(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		level   Level
		userID  int64
		message string
	}{
		{name: "stored level", target: "/?auth_user=42&auth_key=secretkey", level: LevelEditor, userID: 42},
		{name: "default level", target: "/?auth_user=7&auth_key=right", level: LevelLogin, userID: 7},
		{name: "empty stored level defaults", target: "/?auth_user=10&auth_key=k", level: LevelLogin, userID: 10},
		{name: "wrong key", target: "/?auth_user=7&auth_key=wrong", message: MsgAccessDenied},
		{name: "key is case sensitive", target: "/?auth_user=7&auth_key=RIGHT", message: MsgAccessDenied},
		{name: "empty stored key", target: "/?auth_user=8&auth_key=anything", message: MsgAccessDenied},
		{name: "no stored key", target: "/?auth_user=9&auth_key=anything", message: MsgAccessDenied},
		{name: "non numeric id", target: "/?auth_user=alice&auth_key=secretkey", message: MsgInvalidQueryIdentity},
		{name: "fractional id", target: "/?auth_user=4.2&auth_key=secretkey", message: MsgInvalidQueryIdentity},
		{name: "negative id", target: "/?auth_user=-42&auth_key=secretkey", message: MsgInvalidQueryIdentity},
		{name: "unknown id", target: "/?auth_user=1000&auth_key=secretkey", message: MsgInvalidQueryIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := resolve(t, newDirectory(), httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, MethodQuery, out.Method)
			if tt.message != "" {
				assertDenied(t, out, tt.message)
				return
			}
			assertGranted(t, out, tt.level, tt.userID)
		})
	}
}

func TestResolveNonNumericIdentifierSkipsLookup(t *testing.T) {
	dir := newDirectory()
	resolve(t, dir, httptest.NewRequest(http.MethodGet, "/?auth_user=abc&auth_key=k", nil))
	assert.Empty(t, dir.lookups)
}

func TestResolveBasicHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		level   Level
		userID  int64
		message string
	}{
		{name: "editor", header: "Basic 42:secretkey", level: LevelEditor, userID: 42},
		{name: "default level", header: "Basic 7:right", level: LevelLogin, userID: 7},
		{name: "wrong key", header: "Basic 7:wrong", message: MsgAccessDenied},
		{name: "missing key half", header: "Basic 42", message: MsgAccessDenied},
		{name: "empty key half", header: "Basic 42:", message: MsgAccessDenied},
		{name: "bad identifier", header: "Basic alice:secretkey", message: MsgInvalidHeaderIdentity},
		{name: "empty identifier", header: "Basic :secretkey", message: MsgInvalidHeaderIdentity},
		{name: "unknown identifier", header: "Basic 1000:secretkey", message: MsgInvalidHeaderIdentity},
		{name: "bearer scheme", header: "Bearer 42:secretkey", message: MsgInvalidHeader},
		{name: "empty key portion", header: "Basic ", message: MsgInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)

			out := resolve(t, newDirectory(), req)
			assert.Equal(t, MethodHeader, out.Method)
			if tt.message != "" {
				assertDenied(t, out, tt.message)
				return
			}
			assertGranted(t, out, tt.level, tt.userID)
		})
	}
}

func TestResolveMalformedHeaderDoesNotFallThroughToSession(t *testing.T) {
	alice := newDirectory().users[42]
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	req = req.WithContext(session.WithLocals(req.Context(), &session.Locals{AuthUser: &session.AuthUser{UserData: alice}}))

	out := resolve(t, newDirectory(), req)
	assertDenied(t, out, MsgInvalidHeader)
	assert.Equal(t, FailureMalformedCredential, out.Failure.Kind)
}

func TestResolveSession(t *testing.T) {
	alice := &store.User{ID: 42, Preferences: store.Preferences{TrackLevel: strPtr("admin")}}
	bob := &store.User{ID: 7}

	t.Run("no session machinery", func(t *testing.T) {
		out := resolve(t, newDirectory(), httptest.NewRequest(http.MethodGet, "/", nil))
		assertDenied(t, out, MsgSessionTimeout)
		assert.Equal(t, http.StatusUnauthorized, out.Failure.StatusCode())
	})

	withLocals := func(l *session.Locals) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(session.WithLocals(req.Context(), l))
	}

	t.Run("anonymous", func(t *testing.T) {
		out := resolve(t, newDirectory(), withLocals(&session.Locals{}))
		require.True(t, out.OK())
		assert.Equal(t, LevelNone, out.Level)
		assert.Nil(t, out.UserID)
		assert.False(t, out.Authenticated())
	})

	t.Run("auth user without data is anonymous", func(t *testing.T) {
		out := resolve(t, newDirectory(), withLocals(&session.Locals{AuthUser: &session.AuthUser{}}))
		require.True(t, out.OK())
		assert.Equal(t, LevelNone, out.Level)
		assert.Nil(t, out.UserID)
	})

	t.Run("principal is trusted without lookup", func(t *testing.T) {
		dir := newDirectory()
		out := resolve(t, dir, withLocals(&session.Locals{AuthUser: &session.AuthUser{UserData: alice}}))
		assertGranted(t, out, LevelAdmin, 42)
		assert.True(t, out.Authenticated())
		assert.Empty(t, dir.lookups)
	})

	t.Run("principal default level", func(t *testing.T) {
		out := resolve(t, newDirectory(), withLocals(&session.Locals{AuthUser: &session.AuthUser{UserData: bob}}))
		assertGranted(t, out, LevelLogin, 7)
	})
}

func TestResolveDirectoryFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("connection refused")}
	req := httptest.NewRequest(http.MethodGet, "/?auth_user=42&auth_key=secretkey", nil)

	_, err := NewResolver(dir, zap.NewNop()).Resolve(req.Context(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolveCredentialUnknownVariantPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = NewResolver(newDirectory(), zap.NewNop()).ResolveCredential(context.Background(), nil)
	})
}

func TestOutcomeUserIDValue(t *testing.T) {
	assert.Equal(t, int64(42), granted(MethodHeader, LevelEditor, 42).UserIDValue())
	assert.Equal(t, int64(0), anonymous().UserIDValue())
	assert.False(t, anonymous().Authenticated())
}
