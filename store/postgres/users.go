package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ebogdum/levelgate/store"
)

// GetByID retrieves a user by numeric identity
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*store.User, error) {
	defer observe("get_user", time.Now())

	var u store.User
	var prefs []byte

	err := s.db.QueryRowContext(ctx, _SQL_GET_USER_BY_ID, id).Scan(&u.ID, &u.Name, &prefs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Preferences, err = store.DecodePreferences(prefs)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}

	return &u, nil
}
