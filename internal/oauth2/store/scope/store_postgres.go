package scope

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/internal/oauth2/models"
)

// PostgresStore persists scopes in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ByConsumerID(ctx context.Context, consumerID string) ([]models.Scope, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, bank_id, consumer_id, role FROM scopes WHERE consumer_id = $1`,
		consumerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []models.Scope
	for rows.Next() {
		var sc models.Scope
		if err := rows.Scan(&sc.ID, &sc.BankID, &sc.ConsumerID, &sc.Role); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

func (s *PostgresStore) Add(ctx context.Context, scope models.Scope) error {
	if scope.ID == "" {
		scope.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scopes (id, bank_id, consumer_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (consumer_id, bank_id, role) DO NOTHING
	`, scope.ID, scope.BankID, scope.ConsumerID, scope.Role)
	if err != nil {
		return fmt.Errorf("add scope: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, scope models.Scope) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM scopes WHERE consumer_id = $1 AND bank_id = $2 AND role = $3`,
		scope.ConsumerID, scope.BankID, scope.Role,
	)
	if err != nil {
		return fmt.Errorf("delete scope: %w", err)
	}
	return nil
}
