package postgres

import (
	"context"
	"database/sql"
	"errors"

	"filevault/internal/repository"
)

// SessionPostgres reads the sessions table maintained by the account service.
type SessionPostgres struct {
	db *sql.DB
}

// NewSessionPostgres creates a new SessionPostgres repository.
func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

// UserIDByToken returns the id of the user an unexpired session token belongs to.
// Sessions whose user record no longer exists do not resolve.
func (r *SessionPostgres) UserIDByToken(ctx context.Context, token string) (string, error) {
	const q = `
		SELECT u.id
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()
	`
	var userID string
	if err := r.db.QueryRowContext(ctx, q, token).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}
