// Package redact masks credentials and user identities before they reach log output.
package redact

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync/atomic"
)

// Mode controls how sensitive data is handled in logs
type Mode int32

const (
	// ProductionMode hashes sensitive data for production use
	ProductionMode Mode = iota
	// DevelopmentMode shows truncated sensitive data for debugging
	DevelopmentMode
	// DebugMode shows full identities (only for development). Secrets stay masked.
	DebugMode
)

var currentMode atomic.Int32

// ParseMode maps a configuration value to a Mode. Unknown values fall back to ProductionMode.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "development":
		return DevelopmentMode
	case "debug":
		return DebugMode
	default:
		return ProductionMode
	}
}

// SetMode sets the process-wide redaction mode
func SetMode(m Mode) {
	currentMode.Store(int32(m))
}

// CurrentMode returns the process-wide redaction mode
func CurrentMode() Mode {
	return Mode(currentMode.Load())
}

// UserID sanitizes user identifiers for logging
func UserID(userID string) string {
	if userID == "" {
		return ""
	}

	switch CurrentMode() {
	case DevelopmentMode:
		if len(userID) <= 4 {
			return userID
		}
		return userID[:4] + "****"
	case DebugMode:
		return userID
	default:
		hash := sha256.Sum256([]byte(userID))
		return fmt.Sprintf("user_hash:%x", hash[:6])
	}
}

// Secret never returns the secret itself, only whether one was presented and its length outside production.
func Secret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	if CurrentMode() == ProductionMode {
		return "<redacted>"
	}
	return fmt.Sprintf("<redacted len=%d>", len(secret))
}

// Endpoint strips credential query parameters from a request URI
func Endpoint(uri string) string {
	path, query, ok := strings.Cut(uri, "?")
	if !ok {
		return uri
	}

	parts := strings.Split(query, "&")
	for i, p := range parts {
		name, _, _ := strings.Cut(p, "=")
		if name == "auth_key" {
			parts[i] = "auth_key=" + Secret("x")
		}
	}
	return path + "?" + strings.Join(parts, "&")
}
