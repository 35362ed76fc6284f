package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebogdum/levelgate/session"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		header  string
		want    Credential
		failure string
	}{
		{
			name:   "query pair",
			target: "/?auth_user=7&auth_key=right",
			want:   QueryPair{UserIdentifier: "7", AuthKey: "right"},
		},
		{
			name:   "query pair wins over header",
			target: "/?auth_user=7&auth_key=right",
			header: "Bearer nonsense",
			want:   QueryPair{UserIdentifier: "7", AuthKey: "right"},
		},
		{
			name:   "incomplete query pair falls through to header",
			target: "/?auth_user=7",
			header: "Basic 42:secretkey",
			want:   BasicHeader{UserIdentifier: "42", AuthKey: "secretkey"},
		},
		{
			name:   "empty query key falls through",
			target: "/?auth_user=7&auth_key=",
			want:   SessionPrincipal{},
		},
		{
			name:   "header key keeps text after the first colon",
			target: "/",
			header: "Basic 42:sec:ret",
			want:   BasicHeader{UserIdentifier: "42", AuthKey: "sec:ret"},
		},
		{
			name:   "header without key half",
			target: "/",
			header: "Basic 42",
			want:   BasicHeader{UserIdentifier: "42"},
		},
		{
			name:    "wrong scheme",
			target:  "/",
			header:  "Bearer 42:secretkey",
			failure: MsgInvalidHeader,
		},
		{
			name:    "scheme is case sensitive",
			target:  "/",
			header:  "basic 42:secretkey",
			failure: MsgInvalidHeader,
		},
		{
			name:    "empty key portion",
			target:  "/",
			header:  "Basic ",
			failure: MsgInvalidHeader,
		},
		{
			name:    "no space",
			target:  "/",
			header:  "Basic",
			failure: MsgInvalidHeader,
		},
		{
			name:   "no credentials",
			target: "/",
			want:   SessionPrincipal{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			cred, failure := Extract(req)
			if tt.failure != "" {
				require.NotNil(t, failure)
				assert.Nil(t, cred)
				assert.Equal(t, tt.failure, failure.Message)
				assert.Equal(t, FailureMalformedCredential, failure.Kind)
				assert.Equal(t, http.StatusBadRequest, failure.StatusCode())
				return
			}
			require.Nil(t, failure)
			assert.Equal(t, tt.want, cred)
		})
	}
}

func TestExtractSessionLocals(t *testing.T) {
	locals := &session.Locals{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(session.WithLocals(req.Context(), locals))

	cred, failure := Extract(req)
	require.Nil(t, failure)
	sp, ok := cred.(SessionPrincipal)
	require.True(t, ok)
	assert.Same(t, locals, sp.Locals)
	assert.Equal(t, MethodSession, cred.Method())
}
