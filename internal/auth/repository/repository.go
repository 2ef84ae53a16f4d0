package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

const (
	getRoleQuery = `SELECT role FROM profiles WHERE user_id = $1`

	setRoleQuery = `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
	`
)

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func New(db Querier) *Repository {
	return &Repository{db: db}
}

// GetRole returns the stored role, or ErrNotFound when the user has no profile.
func (r *Repository) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := r.db.QueryRow(ctx, getRoleQuery, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// SetRole creates or updates the user's profile with role.
func (r *Repository) SetRole(ctx context.Context, userID uuid.UUID, role string) (string, error) {
	var stored string
	err := r.db.QueryRow(ctx, setRoleQuery+" RETURNING role", userID, role).Scan(&stored)
	return stored, err
}
