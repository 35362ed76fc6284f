// Package store defines the user directory and audit log persistence used by levelgate.
// Concrete backends live in the postgres, sqlite and s3audit subpackages.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Common store errors
var (
	ErrNotFound = errors.New("record not found")
)

// Preferences is the opaque per-user preferences blob. Only the two fields the
// authentication layer reads are modelled; unknown keys are preserved in Extra.
type Preferences struct {
	AuthKey    *string        `json:"authKey"`
	TrackLevel *string        `json:"trackLevel"`
	Extra      map[string]any `json:"-"`
}

// User is a row of the user directory
type User struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Preferences Preferences `json:"preferences"`
}

// AuditRecord is a write-once snapshot of an inbound API request
type AuditRecord struct {
	ID        int64     `json:"id"`
	Method    string    `json:"method"`
	Endpoint  string    `json:"endpoint"`
	SourceIP  string    `json:"source_ip"`
	UserAgent *string   `json:"user_agent"`
	Headers   string    `json:"headers"`
	Query     string    `json:"query"`
	Body      *string   `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory looks up users by numeric identity
type Directory interface {
	// GetByID returns the user with the given ID or ErrNotFound
	GetByID(ctx context.Context, id int64) (*User, error)
}

// AuditWriter persists audit records
type AuditWriter interface {
	// InsertAuditRecord appends a record. The record is never updated afterwards.
	InsertAuditRecord(ctx context.Context, rec *AuditRecord) error
}

// Store is a user directory that also keeps the audit log
type Store interface {
	Directory
	AuditWriter

	// Close closes the store connection
	Close() error
}

// UnmarshalJSON decodes the preferences blob, keeping keys it does not know about.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Preferences{}
	if v, ok := raw["authKey"].(string); ok {
		p.AuthKey = &v
	}
	if v, ok := raw["trackLevel"].(string); ok {
		p.TrackLevel = &v
	}
	delete(raw, "authKey")
	delete(raw, "trackLevel")
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the preferences blob including any preserved keys.
func (p Preferences) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["authKey"] = p.AuthKey
	out["trackLevel"] = p.TrackLevel
	return json.Marshal(out)
}

// DecodePreferences parses a preferences column. NULL and empty columns decode to zero preferences.
func DecodePreferences(raw []byte) (Preferences, error) {
	var p Preferences
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Preferences{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return p, nil
}
