package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/store"
)

const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    preferences TEXT,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS api_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    method TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    source_ip TEXT NOT NULL,
    user_agent TEXT,
    headers TEXT NOT NULL,
    query TEXT NOT NULL,
    body TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_log_created_at ON api_log(created_at);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*store.User, error) {
	defer observe("get_user", time.Now())

	var u store.User
	var prefs sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, preferences FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &prefs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if prefs.Valid {
		u.Preferences, err = store.DecodePreferences([]byte(prefs.String))
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", id, err)
		}
	}

	return &u, nil
}

func (s *SQLiteStore) InsertAuditRecord(ctx context.Context, rec *store.AuditRecord) error {
	defer observe("insert_api_log", time.Now())

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO api_log (method, endpoint, source_ip, user_agent, headers, query, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Method,
		rec.Endpoint,
		rec.SourceIP,
		nullableString(rec.UserAgent),
		rec.Headers,
		rec.Query,
		nullableString(rec.Body),
		createdAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read audit record id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func observe(operation string, start time.Time) {
	metrics.StoreQueriesTotal.WithLabelValues("sqlite", operation).Inc()
	metrics.StoreQueryDuration.WithLabelValues("sqlite", operation).Observe(time.Since(start).Seconds())
}
