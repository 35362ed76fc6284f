package auth

import (
	"net/http"
	"strings"

	"github.com/ebogdum/levelgate/session"
)

// Method names the way a credential was presented
type Method string

const (
	MethodQuery   Method = "query"
	MethodHeader  Method = "header"
	MethodSession Method = "session"
)

// Credential is one of QueryPair, BasicHeader or SessionPrincipal.
// The set is closed: the unexported method keeps other packages from adding variants.
type Credential interface {
	Method() Method
	credential()
}

// QueryPair is presented as ?auth_user=<id>&auth_key=<key>
type QueryPair struct {
	UserIdentifier string
	AuthKey        string
}

// BasicHeader is presented as "Authorization: Basic <id>:<key>"
type BasicHeader struct {
	UserIdentifier string
	AuthKey        string
}

// SessionPrincipal carries the session locals attached by the session
// middleware. Locals is nil when no session middleware ran.
type SessionPrincipal struct {
	Locals *session.Locals
}

func (QueryPair) Method() Method        { return MethodQuery }
func (BasicHeader) Method() Method      { return MethodHeader }
func (SessionPrincipal) Method() Method { return MethodSession }

func (QueryPair) credential()        {}
func (BasicHeader) credential()      {}
func (SessionPrincipal) credential() {}

// Extract picks the credential presentation of r. The query pair wins over
// the Authorization header, which wins over the session. A malformed
// Authorization header is a failure, never a fall-through to the session.
func Extract(r *http.Request) (Credential, *Failure) {
	q := r.URL.Query()
	if user, key := q.Get("auth_user"), q.Get("auth_key"); user != "" && key != "" {
		return QueryPair{UserIdentifier: user, AuthKey: key}, nil
	}

	if header := r.Header.Get("Authorization"); header != "" {
		scheme, key, _ := strings.Cut(header, " ")
		if scheme != "Basic" || key == "" {
			return nil, &Failure{Kind: FailureMalformedCredential, Message: MsgInvalidHeader}
		}

		// A missing key half is rejected by validation, not here.
		userIdentifier, authKey, _ := strings.Cut(key, ":")
		return BasicHeader{UserIdentifier: userIdentifier, AuthKey: authKey}, nil
	}

	locals, _ := session.LocalsFromContext(r.Context())
	return SessionPrincipal{Locals: locals}, nil
}
