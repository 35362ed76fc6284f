package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/auth"
	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/response"
)

type contextKey string

const (
	outcomeKey   contextKey = "auth_outcome"
	RequestIDKey contextKey = "request_id"
)

// Denial messages of V1RequireLevel
const (
	MsgNotLoggedIn       = "Not logged in"
	MsgInsufficientLevel = "Insufficient access level"
)

// OutcomeResolver resolves the credentials of a request
type OutcomeResolver interface {
	Resolve(ctx context.Context, r *http.Request) (auth.Outcome, error)
}

// V1RequireLevel creates middleware that admits only callers whose level is at
// least required. Anonymous callers are turned away with 401 unless required
// is LevelNone. The admitted outcome is available through GetOutcome.
func V1RequireLevel(resolver OutcomeResolver, required auth.Level, logger *zap.Logger) func(http.Handler) http.Handler {
	if !auth.IsKnown(required) {
		panic("middleware: V1RequireLevel with unknown level " + string(required))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				logger.Error("Credential resolution failed",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				response.Fail(w, http.StatusInternalServerError, "")
				return
			}

			if !out.OK() {
				logger.Debug("Authentication failed",
					zap.String("method", string(out.Method)),
					zap.String("kind", out.Failure.Kind.String()))
				response.Fail(w, out.Failure.StatusCode(), out.Failure.Message)
				return
			}

			if required != auth.LevelNone && !out.Authenticated() {
				metrics.AccessChecksTotal.WithLabelValues(string(required), "deny").Inc()
				response.Fail(w, http.StatusUnauthorized, MsgNotLoggedIn)
				return
			}

			if !auth.IsKnown(out.Level) {
				logger.Error("Caller has an unknown stored level",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("level", string(out.Level)))
				response.Fail(w, http.StatusInternalServerError, "")
				return
			}

			if !auth.Compare(out.Level, required) {
				metrics.AccessChecksTotal.WithLabelValues(string(required), "deny").Inc()
				logger.Debug("Access level insufficient",
					zap.String("level", string(out.Level)),
					zap.String("required", string(required)))
				response.Fail(w, http.StatusForbidden, MsgInsufficientLevel)
				return
			}

			metrics.AccessChecksTotal.WithLabelValues(string(required), "permit").Inc()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), outcomeKey, out)))
		})
	}
}

// GetOutcome extracts the outcome admitted by V1RequireLevel
func GetOutcome(ctx context.Context) (auth.Outcome, bool) {
	out, ok := ctx.Value(outcomeKey).(auth.Outcome)
	return out, ok
}

// V1RequestIDMiddleware adds a unique request ID to each request context
func V1RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()

			// Add request ID to response header
			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
