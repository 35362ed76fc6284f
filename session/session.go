// Package session attaches the upstream session principal to a request.
// It only reads sessions; creating and expiring them belongs to the login flow.
package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/internal/redact"
	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/store"
)

// ErrNoSession is returned by a Loader when the session does not exist or has expired
var ErrNoSession = errors.New("session not found")

// AuthUser is the authenticated principal of a session
type AuthUser struct {
	UserData *store.User
}

// Locals is the per-request session state. Its presence in the request
// context means the session machinery ran for this request.
type Locals struct {
	AuthUser *AuthUser
}

// Principal returns the session user or nil for an anonymous session
func (l *Locals) Principal() *store.User {
	if l == nil || l.AuthUser == nil {
		return nil
	}
	return l.AuthUser.UserData
}

// Loader resolves a session ID to its user
type Loader interface {
	Load(ctx context.Context, sessionID string) (*store.User, error)
}

type localsKey struct{}

// WithLocals returns a copy of ctx carrying the session locals
func WithLocals(ctx context.Context, l *Locals) context.Context {
	return context.WithValue(ctx, localsKey{}, l)
}

// LocalsFromContext extracts the session locals from ctx
func LocalsFromContext(ctx context.Context) (*Locals, bool) {
	l, ok := ctx.Value(localsKey{}).(*Locals)
	return l, ok && l != nil
}

// Middleware attaches session locals to every request and fills in the
// principal when the session cookie resolves to a user. A lookup failure
// leaves the request anonymous.
func Middleware(loader Loader, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locals := &Locals{}

			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				user, err := loader.Load(r.Context(), cookie.Value)
				switch {
				case err == nil:
					metrics.SessionLookupsTotal.WithLabelValues("found").Inc()
					locals.AuthUser = &AuthUser{UserData: user}
					logger.Debug("Session principal attached",
						zap.String("user_id", redact.UserID(formatID(user.ID))))
				case errors.Is(err, ErrNoSession):
					metrics.SessionLookupsTotal.WithLabelValues("missing").Inc()
					logger.Debug("Session cookie did not match a live session")
				default:
					metrics.SessionLookupsTotal.WithLabelValues("error").Inc()
					logger.Warn("Session lookup failed", zap.Error(err))
				}
			}

			next.ServeHTTP(w, r.WithContext(WithLocals(r.Context(), locals)))
		})
	}
}

// AnonymousMiddleware attaches empty session locals to every request. It
// stands in for Middleware when no session store is configured, so callers
// without credentials resolve as anonymous.
func AnonymousMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLocals(r.Context(), &Locals{})))
		})
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
