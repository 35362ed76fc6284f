package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ebogdum/levelgate/store"
)

// InsertAuditRecord appends a row to api_log
func (s *PostgresStore) InsertAuditRecord(ctx context.Context, rec *store.AuditRecord) error {
	defer observe("insert_api_log", time.Now())

	var userAgent, body sql.NullString
	if rec.UserAgent != nil {
		userAgent = sql.NullString{String: *rec.UserAgent, Valid: true}
	}
	if rec.Body != nil {
		body = sql.NullString{String: *rec.Body, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, _SQL_INSERT_API_LOG,
		rec.Method,
		rec.Endpoint,
		rec.SourceIP,
		userAgent,
		rec.Headers,
		rec.Query,
		body,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}
