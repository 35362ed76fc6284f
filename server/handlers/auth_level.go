package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/auth"
	"github.com/ebogdum/levelgate/response"
	"github.com/ebogdum/levelgate/server/middleware"
)

// levelView is the data payload describing a resolved caller
type levelView struct {
	Level  auth.Level `json:"level"`
	UserID *int64     `json:"user_id"`
}

type checkView struct {
	levelView
	Required auth.Level `json:"required"`
	Granted  bool       `json:"granted"`
}

// V1GetLevel reports the caller's resolved level and user ID
func V1GetLevel(resolver middleware.OutcomeResolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, ok := resolveOrFail(w, r, resolver, logger)
		if !ok {
			return
		}

		response.Success(w, levelView{Level: out.Level, UserID: out.UserID})
	}
}

// V1CheckLevel reports whether the caller satisfies the level given in the
// "level" query parameter. A denial is a normal answer, not an error.
func V1CheckLevel(resolver middleware.OutcomeResolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		required, err := auth.ParseLevel(r.URL.Query().Get("level"))
		if err != nil {
			response.Fail(w, http.StatusBadRequest, "Unknown level, expected one of: none, login, editor, admin")
			return
		}

		out, ok := resolveOrFail(w, r, resolver, logger)
		if !ok {
			return
		}

		if !auth.IsKnown(out.Level) {
			// The stored track level is corrupt; report it instead of comparing.
			logger.Error("Caller has an unknown stored level", zap.String("level", string(out.Level)))
			response.Fail(w, http.StatusInternalServerError, "")
			return
		}

		response.Success(w, checkView{
			levelView: levelView{Level: out.Level, UserID: out.UserID},
			Required:  required,
			Granted:   auth.Compare(out.Level, required),
		})
	}
}

// V1AdminPing answers only callers admitted by V1RequireLevel(LevelAdmin)
func V1AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, _ := middleware.GetOutcome(r.Context())
		response.Success(w, map[string]any{
			"pong":       true,
			"user_id":    out.UserIDValue(),
			"request_id": middleware.GetRequestID(r.Context()),
		})
	}
}

func resolveOrFail(w http.ResponseWriter, r *http.Request, resolver middleware.OutcomeResolver, logger *zap.Logger) (auth.Outcome, bool) {
	out, err := resolver.Resolve(r.Context(), r)
	if err != nil {
		logger.Error("Credential resolution failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		response.Fail(w, http.StatusInternalServerError, "")
		return auth.Outcome{}, false
	}
	if !out.OK() {
		response.Fail(w, out.Failure.StatusCode(), out.Failure.Message)
		return auth.Outcome{}, false
	}
	return out, true
}
