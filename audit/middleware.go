package audit

import (
	"net/http"

	"go.uber.org/zap"
)

// Middleware audits every request passing through it. A persistence failure
// is logged and the request continues; handlers that must fail closed on
// audit gaps call Auditor.Log themselves.
func Middleware(a *Auditor, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Log(r.Context(), r); err != nil {
				logger.Error("Failed to audit request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}
