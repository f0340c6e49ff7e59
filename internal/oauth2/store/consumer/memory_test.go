package consumer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
)

func newTestConsumer(subject, azp string) *models.Consumer {
	return &models.Consumer{
		ID:              uuid.NewString(),
		Key:             uuid.NewString(),
		Secret:          uuid.NewString(),
		Subject:         subject,
		AuthorizedParty: azp,
		Issuer:          "https://idp.example.com",
		Enabled:         true,
	}
}

func TestCreateAndLookups(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	c := newTestConsumer("sub-1", "portal")
	created, err := store.Create(ctx, c)
	require.NoError(t, err)

	byKey, err := store.ByKey(ctx, c.Key)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, created.ID, byKey.ID)

	byPair, err := store.BySubjectAndAzp(ctx, "sub-1", "portal")
	require.NoError(t, err)
	require.NotNil(t, byPair)
	assert.Equal(t, created.ID, byPair.ID)

	missing, err := store.BySubjectAndAzp(ctx, "sub-1", "other-azp")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuplicatePairRejected(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	_, err := store.Create(ctx, newTestConsumer("sub-1", "portal"))
	require.NoError(t, err)

	_, err = store.Create(ctx, newTestConsumer("sub-1", "portal"))
	assert.ErrorIs(t, err, ports.ErrDuplicate)
}

func TestUpdateCertificate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	c := newTestConsumer("sub-2", "tpp-app")
	_, err := store.Create(ctx, c)
	require.NoError(t, err)

	require.NoError(t, store.UpdateCertificate(ctx, c.ID, "-----BEGIN CERTIFICATE-----\nabc\n-----END CERTIFICATE-----"))

	got, err := store.ByKey(ctx, c.Key)
	require.NoError(t, err)
	assert.Contains(t, got.CertificatePEM, "BEGIN CERTIFICATE")
}

func TestUpdateCertificateUnknownConsumer(t *testing.T) {
	store := NewInMemory()
	err := store.UpdateCertificate(context.Background(), "no-such-id", "pem")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
