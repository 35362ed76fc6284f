package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/internal/redact"
	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/store"
)

// Resolver turns a request into an Outcome
type Resolver struct {
	directory UserDirectory
	logger    *zap.Logger
}

// NewResolver creates a resolver backed by the given user directory
func NewResolver(directory UserDirectory, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		logger:    logger,
	}
}

// Resolve extracts the request's credential and resolves it. Expected
// failures are reported in Outcome.Failure; the error return is reserved for
// directory failures.
func (rv *Resolver) Resolve(ctx context.Context, r *http.Request) (Outcome, error) {
	cred, failure := Extract(r)
	if failure != nil {
		out := Outcome{Failure: failure, Method: MethodHeader}
		rv.record(out)
		return out, nil
	}

	out, err := rv.ResolveCredential(ctx, cred)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("auth", "directory").Inc()
		return Outcome{}, err
	}
	rv.record(out)
	return out, nil
}

// ResolveCredential resolves an already extracted credential
func (rv *Resolver) ResolveCredential(ctx context.Context, cred Credential) (Outcome, error) {
	switch c := cred.(type) {
	case QueryPair:
		return rv.verify(ctx, MethodQuery, c.UserIdentifier, c.AuthKey, MsgInvalidQueryIdentity)
	case BasicHeader:
		return rv.verify(ctx, MethodHeader, c.UserIdentifier, c.AuthKey, MsgInvalidHeaderIdentity)
	case SessionPrincipal:
		return resolveSession(c), nil
	default:
		panic(fmt.Sprintf("auth: unhandled credential type %T", cred))
	}
}

// verify resolves the identity and checks the presented key against the stored one
func (rv *Resolver) verify(ctx context.Context, method Method, identifier, presentedKey, invalidIdentityMsg string) (Outcome, error) {
	id, ok := parseIdentifier(identifier)
	if !ok {
		return denied(method, FailureInvalidIdentity, invalidIdentityMsg), nil
	}

	user, err := rv.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return denied(method, FailureInvalidIdentity, invalidIdentityMsg), nil
		}
		return Outcome{}, fmt.Errorf("failed to resolve %s identity: %w", method, err)
	}

	if !keyMatches(user.Preferences.AuthKey, presentedKey) {
		rv.logger.Debug("Auth key rejected",
			zap.String("method", string(method)),
			zap.String("user_id", redact.UserID(identifier)),
			zap.String("presented_key", redact.Secret(presentedKey)))
		return denied(method, FailureAccessDenied, MsgAccessDenied), nil
	}

	level := levelOf(user)
	if !IsKnown(level) {
		rv.logger.Warn("User has an unknown track level stored",
			zap.String("user_id", redact.UserID(identifier)),
			zap.String("level", string(level)))
	}

	return granted(method, level, user.ID), nil
}

// resolveSession trusts the principal established by the session middleware
func resolveSession(c SessionPrincipal) Outcome {
	if c.Locals == nil {
		return denied(MethodSession, FailureSessionTimeout, MsgSessionTimeout)
	}

	user := c.Locals.Principal()
	if user == nil {
		return anonymous()
	}
	return granted(MethodSession, levelOf(user), user.ID)
}

func (rv *Resolver) record(out Outcome) {
	result := "granted"
	switch {
	case out.Failure != nil:
		result = out.Failure.Kind.String()
	case out.UserID == nil:
		result = "anonymous"
	}
	metrics.AuthOutcomesTotal.WithLabelValues(string(out.Method), result).Inc()

	if ce := rv.logger.Check(zap.DebugLevel, "Credentials resolved"); ce != nil {
		userID := ""
		if out.UserID != nil {
			userID = redact.UserID(strconv.FormatInt(*out.UserID, 10))
		}
		ce.Write(
			zap.String("method", string(out.Method)),
			zap.String("result", result),
			zap.String("level", string(out.Level)),
			zap.String("user_id", userID))
	}
}

// parseIdentifier accepts a positive base-10 user ID, ignoring surrounding whitespace
func parseIdentifier(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func keyMatches(stored *string, presented string) bool {
	if stored == nil || *stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}

func levelOf(user *store.User) Level {
	if tl := user.Preferences.TrackLevel; tl != nil && *tl != "" {
		return Level(*tl)
	}
	return LevelLogin
}
