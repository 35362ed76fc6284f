// Package auth resolves who is making an API request and which access level they hold.
// It supports three credential presentations (query pair, Basic header, session principal),
// evaluated in a fixed precedence, and compares levels through a fixed rank table.
package auth

import (
	"context"

	"github.com/ebogdum/levelgate/store"
)

// UserDirectory looks up users by numeric identity. It must return
// store.ErrNotFound when no user exists for the ID.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*store.User, error)
}
