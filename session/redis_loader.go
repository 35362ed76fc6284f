package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/store"
)

// RedisLoader reads sessions written by the login flow. A session is stored
// as <prefix>session:<id> holding the numeric user ID; its TTL is the
// session lifetime.
type RedisLoader struct {
	client    *redis.Client
	prefix    string
	directory store.Directory
	logger    *zap.Logger
}

// NewRedisLoader connects to Redis and returns a loader that resolves users through directory
func NewRedisLoader(addr, password string, db int, prefix string, directory store.Directory, logger *zap.Logger) (*RedisLoader, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis session store: %w", err)
	}

	return NewRedisLoaderWithClient(client, prefix, directory, logger), nil
}

// NewRedisLoaderWithClient wraps an existing client
func NewRedisLoaderWithClient(client *redis.Client, prefix string, directory store.Directory, logger *zap.Logger) *RedisLoader {
	if prefix == "" {
		prefix = "levelgate:"
	}
	return &RedisLoader{client: client, prefix: prefix, directory: directory, logger: logger}
}

// Load resolves a session ID to its user
func (l *RedisLoader) Load(ctx context.Context, sessionID string) (*store.User, error) {
	raw, err := l.client.Get(ctx, l.sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session holds malformed user id: %w", err)
	}

	user, err := l.directory.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The user was removed after the session was issued
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// Close closes the Redis client
func (l *RedisLoader) Close() error {
	return l.client.Close()
}

func (l *RedisLoader) sessionKey(id string) string {
	return l.prefix + "session:" + id
}
