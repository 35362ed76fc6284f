package auth

import "net/http"

// User-visible failure messages
const (
	MsgInvalidHeader         = `Invalid Authorization header, must use "Basic (user):(key)"`
	MsgInvalidQueryIdentity  = "User identifier (query) is not valid a valid ID number"
	MsgInvalidHeaderIdentity = "User identifier (header) is not a valid ID number"
	MsgAccessDenied          = "Access denied"
	MsgSessionTimeout        = "Session timed out"
)

// FailureKind classifies an expected authentication failure
type FailureKind int

const (
	FailureMalformedCredential FailureKind = iota + 1
	FailureInvalidIdentity
	FailureAccessDenied
	FailureSessionTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureMalformedCredential:
		return "malformed_credential"
	case FailureInvalidIdentity:
		return "invalid_identity"
	case FailureAccessDenied:
		return "access_denied"
	case FailureSessionTimeout:
		return "session_timeout"
	default:
		return "unknown"
	}
}

// Failure is an expected, user-visible authentication failure
type Failure struct {
	Kind    FailureKind
	Message string
}

// StatusCode maps the failure to the HTTP status used when rendering it
func (f *Failure) StatusCode() int {
	switch f.Kind {
	case FailureMalformedCredential, FailureInvalidIdentity:
		return http.StatusBadRequest
	case FailureAccessDenied:
		return http.StatusForbidden
	case FailureSessionTimeout:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Outcome is the result of resolving a request's credentials. Either Failure
// is set, or Level is set and UserID identifies the caller (nil for an
// anonymous caller at LevelNone). Check OK before reading Level.
type Outcome struct {
	Level   Level
	UserID  *int64
	Failure *Failure
	Method  Method
}

// OK reports whether resolution succeeded
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Authenticated reports whether resolution succeeded with a known user
func (o Outcome) Authenticated() bool {
	return o.OK() && o.UserID != nil
}

// UserIDValue returns the caller's user ID, or 0 for an anonymous caller
func (o Outcome) UserIDValue() int64 {
	if o.UserID == nil {
		return 0
	}
	return *o.UserID
}

func granted(method Method, level Level, userID int64) Outcome {
	return Outcome{Level: level, UserID: &userID, Method: method}
}

func anonymous() Outcome {
	return Outcome{Level: LevelNone, Method: MethodSession}
}

func denied(method Method, kind FailureKind, message string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: message}, Method: method}
}
