package postgres

// SQL query constants for directory and audit operations

const (
	// _SQL_GET_USER_BY_ID retrieves a user and its preferences blob
	_SQL_GET_USER_BY_ID = `
		SELECT id, name, preferences
		FROM users
		WHERE id = $1`

	// _SQL_INSERT_API_LOG appends one audit row
	_SQL_INSERT_API_LOG = `
		INSERT INTO api_log
		(method, endpoint, source_ip, user_agent, headers, query, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
)
