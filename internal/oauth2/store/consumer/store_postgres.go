package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
)

// PostgresStore persists consumers in PostgreSQL. A unique index on
// (subject, authorized_party) enforces the resolve-or-create invariant;
// unique violations surface as ports.ErrDuplicate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const consumerColumns = `id, consumer_key, secret, name, app_type, description, audience,
	authorized_party, issuer, subject, email, redirect_url, certificate_pem, enabled,
	created_by_user_id, created_at`

func (s *PostgresStore) ByKey(ctx context.Context, key string) (*models.Consumer, error) {
	query := `
		SELECT ` + consumerColumns + `
		FROM consumers
		WHERE consumer_key = $1
	`
	c, err := scanConsumer(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consumer by key: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) BySubjectAndAzp(ctx context.Context, subject, authorizedParty string) (*models.Consumer, error) {
	query := `
		SELECT ` + consumerColumns + `
		FROM consumers
		WHERE subject = $1 AND authorized_party = $2
	`
	c, err := scanConsumer(s.pool.QueryRow(ctx, query, subject, authorizedParty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consumer by subject and azp: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Create(ctx context.Context, consumer *models.Consumer) (*models.Consumer, error) {
	query := `
		INSERT INTO consumers (` + consumerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		RETURNING ` + consumerColumns + `
	`
	created, err := scanConsumer(s.pool.QueryRow(ctx, query,
		consumer.ID, consumer.Key, consumer.Secret, consumer.Name, consumer.AppType,
		consumer.Description, consumer.Audience, consumer.AuthorizedParty, consumer.Issuer,
		consumer.Subject, consumer.Email, consumer.RedirectURL, consumer.CertificatePEM,
		consumer.Enabled, consumer.CreatedByUserID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ports.ErrDuplicate
		}
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateCertificate(ctx context.Context, consumerID, certificatePEM string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE consumers SET certificate_pem = $2 WHERE id = $1`,
		consumerID, certificatePEM,
	)
	if err != nil {
		return fmt.Errorf("update consumer certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanConsumer(row pgx.Row) (*models.Consumer, error) {
	var c models.Consumer
	err := row.Scan(
		&c.ID, &c.Key, &c.Secret, &c.Name, &c.AppType, &c.Description, &c.Audience,
		&c.AuthorizedParty, &c.Issuer, &c.Subject, &c.Email, &c.RedirectURL,
		&c.CertificatePEM, &c.Enabled, &c.CreatedByUserID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
