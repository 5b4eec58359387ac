package service

import (
	"context"
	"errors"
	"fmt"

	"filevault/internal/repository"
)

// SessionResolver maps client session tokens to user ids.
type SessionResolver struct {
	repo repository.SessionRepository
}

// NewSessionResolver constructs a SessionResolver over the session store.
func NewSessionResolver(repo repository.SessionRepository) *SessionResolver {
	return &SessionResolver{repo: repo}
}

// Resolve returns the user behind token. ok is false for an empty, unknown or
// expired token; err is only set when the session store itself fails.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (userID string, ok bool, err error) {
	if token == "" {
		return "", false, nil
	}
	userID, err = r.repo.UserIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve session: %w", err)
	}
	return userID, true, nil
}
