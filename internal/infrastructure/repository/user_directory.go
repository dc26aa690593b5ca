package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
)

// UserDirectory resolves user ids to notification addresses from the users
// table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory creates a new user directory
func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// EmailForUser returns the user's email address
func (d *UserDirectory) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := queryerFrom(ctx, d.pool).QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return "", errors.ErrUserNotFound
		}
		return "", errors.NewInternalError("failed to resolve user email").WithCause(err)
	}
	return email, nil
}
