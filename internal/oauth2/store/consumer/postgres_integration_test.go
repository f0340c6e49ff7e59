//go:build integration

package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"authgate/internal/oauth2/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS consumers (
	id                 TEXT PRIMARY KEY,
	consumer_key       TEXT NOT NULL UNIQUE,
	secret             TEXT NOT NULL,
	name               TEXT NOT NULL DEFAULT '',
	app_type           TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	audience           TEXT NOT NULL DEFAULT '',
	authorized_party   TEXT NOT NULL,
	issuer             TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	redirect_url       TEXT NOT NULL DEFAULT '',
	certificate_pem    TEXT NOT NULL DEFAULT '',
	enabled            BOOLEAN NOT NULL DEFAULT TRUE,
	created_by_user_id TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (subject, authorized_party)
);
`

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("authgate"),
		tcpostgres.WithUsername("authgate"),
		tcpostgres.WithPassword("authgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(ctx, dsn)
	s.Require().NoError(err)

	_, err = s.pool.Exec(ctx, schema)
	s.Require().NoError(err)

	s.store = NewPostgres(s.pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE consumers`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateAndLookup() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, newTestConsumer("sub-1", "portal"))
	s.Require().NoError(err)
	s.NotEmpty(created.CreatedAt)

	byPair, err := s.store.BySubjectAndAzp(ctx, "sub-1", "portal")
	s.Require().NoError(err)
	s.Require().NotNil(byPair)
	s.Equal(created.ID, byPair.ID)

	byKey, err := s.store.ByKey(ctx, created.Key)
	s.Require().NoError(err)
	s.Require().NotNil(byKey)
	s.Equal(created.ID, byKey.ID)
}

func (s *PostgresStoreSuite) TestUniquePairViolation() {
	ctx := context.Background()

	_, err := s.store.Create(ctx, newTestConsumer("sub-1", "portal"))
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, newTestConsumer("sub-1", "portal"))
	s.ErrorIs(err, ports.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestUpdateCertificate() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, newTestConsumer("sub-2", "tpp"))
	s.Require().NoError(err)

	pem := "-----BEGIN CERTIFICATE-----\nabc\n-----END CERTIFICATE-----"
	s.Require().NoError(s.store.UpdateCertificate(ctx, created.ID, pem))

	got, err := s.store.ByKey(ctx, created.Key)
	s.Require().NoError(err)
	s.Equal(pem, got.CertificatePEM)

	s.ErrorIs(s.store.UpdateCertificate(ctx, "no-such-id", pem), ports.ErrNotFound)
}
