package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/internal/oauth2/models"
)

// PostgresStore persists users in PostgreSQL. A unique constraint on
// (provider, username) makes GetOrCreate safe under concurrent identical
// keys; this store is pure I/O.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `resource_user_id, provider, username, name, email, created_at`

func (s *PostgresStore) ByProviderAndUsername(ctx context.Context, provider, username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM resource_users
		WHERE provider = $1 AND username = $2
	`
	u, err := scanUser(s.pool.QueryRow(ctx, query, provider, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by provider and username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ByResourceUserID(ctx context.Context, resourceUserID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM resource_users
		WHERE resource_user_id = $1
	`
	u, err := scanUser(s.pool.QueryRow(ctx, query, resourceUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by resource user id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, provider, username, name, email string) (*models.User, error) {
	query := `
		INSERT INTO resource_users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (provider, username) DO NOTHING
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(s.pool.QueryRow(ctx, query, uuid.NewString(), provider, username, name, email))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Conflict: someone else inserted the same key; read theirs.
	existing, err := s.ByProviderAndUsername(ctx, provider, username)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("get or create user: conflict but no row for %s/%s", provider, username)
	}
	return existing, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ResourceUserID, &u.Provider, &u.Username, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
