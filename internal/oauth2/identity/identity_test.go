package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/models"
	consumerStore "authgate/internal/oauth2/store/consumer"
	userStore "authgate/internal/oauth2/store/user"
	"authgate/pkg/audit"
)

type ResolverSuite struct {
	suite.Suite
	users     *userStore.InMemoryStore
	consumers *consumerStore.InMemoryStore
	publisher *audit.MemoryPublisher
	resolver  *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.users = userStore.NewInMemory()
	s.consumers = consumerStore.NewInMemory()
	s.publisher = audit.NewMemoryPublisher()

	var err error
	s.resolver, err = New(s.users, s.consumers, WithAuditPublisher(s.publisher))
	s.Require().NoError(err)
}

func (s *ResolverSuite) claims() models.Claims {
	return models.Claims{
		Issuer:          "https://idp.example.com",
		Subject:         "sub-1",
		AuthorizedParty: "portal",
		Audience:        []string{"api"},
		Email:           "alice@example.com",
		GivenName:       "Alice",
	}
}

// =============================================================================
// User Resolution
// =============================================================================

func (s *ResolverSuite) TestResolveUser() {
	ctx := context.Background()

	s.Run("creates on first sight with given name and email", func() {
		u, err := s.resolver.ResolveUser(ctx, "https://idp.example.com", s.claims())
		s.Require().NoError(err)
		s.Equal("sub-1", u.Username)
		s.Equal("Alice", u.Name)
		s.Equal("alice@example.com", u.Email)
	})

	s.Run("is idempotent per (provider, subject)", func() {
		first, err := s.resolver.ResolveUser(ctx, "provider-a", s.claims())
		s.Require().NoError(err)
		second, err := s.resolver.ResolveUser(ctx, "provider-a", s.claims())
		s.Require().NoError(err)
		s.Equal(first.ResourceUserID, second.ResourceUserID)
	})

	s.Run("falls back to subject when given name is absent", func() {
		claims := s.claims()
		claims.Subject = "anon-sub"
		claims.GivenName = ""
		u, err := s.resolver.ResolveUser(ctx, "provider-b", claims)
		s.Require().NoError(err)
		s.Equal("anon-sub", u.Name)
	})

	s.Run("federated subjects are looked up, never created", func() {
		existing, err := s.users.GetOrCreate(ctx, "local", "dave", "Dave", "dave@example.com")
		s.Require().NoError(err)

		claims := s.claims()
		claims.Subject = models.FederatedSubjectPrefix + existing.ResourceUserID
		u, err := s.resolver.ResolveUser(ctx, "whatever", claims)
		s.Require().NoError(err)
		s.Equal(existing.ResourceUserID, u.ResourceUserID)

		claims.Subject = models.FederatedSubjectPrefix + "no-such-id"
		_, err = s.resolver.ResolveUser(ctx, "whatever", claims)
		s.Error(err)
	})
}

// =============================================================================
// Consumer Resolution
// =============================================================================

func (s *ResolverSuite) TestResolveConsumer() {
	ctx := context.Background()

	s.Run("creates with generated credentials and creator", func() {
		creator, err := s.resolver.ResolveUser(ctx, "https://idp.example.com", s.claims())
		s.Require().NoError(err)

		c, err := s.resolver.ResolveConsumer(ctx, s.claims(), creator)
		s.Require().NoError(err)
		s.NotEmpty(c.Key)
		s.NotEmpty(c.Secret)
		s.Equal("portal", c.AuthorizedParty)
		s.Equal(creator.ResourceUserID, c.CreatedByUserID)
		s.True(c.Enabled)
	})

	s.Run("is idempotent per (subject, azp)", func() {
		first, err := s.resolver.ResolveConsumer(ctx, s.claims(), nil)
		s.Require().NoError(err)
		second, err := s.resolver.ResolveConsumer(ctx, s.claims(), nil)
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
		s.Equal(first.Key, second.Key)
	})

	s.Run("emits a provisioning audit event once", func() {
		claims := s.claims()
		claims.Subject = "sub-audited"
		_, err := s.resolver.ResolveConsumer(ctx, claims, nil)
		s.Require().NoError(err)
		_, err = s.resolver.ResolveConsumer(ctx, claims, nil)
		s.Require().NoError(err)

		var provisioned int
		for _, e := range s.publisher.Events() {
			if e.Action == audit.ActionConsumerProvisioned && e.Subject == "sub-audited" {
				provisioned++
			}
		}
		s.Equal(1, provisioned)
	})
}

func TestConsumerIDFor(t *testing.T) {
	t.Run("uuid azp used verbatim", func(t *testing.T) {
		azp := uuid.NewString()
		if got := ConsumerIDFor(azp); got != azp {
			t.Fatalf("expected %s, got %s", azp, got)
		}
	})

	t.Run("non-uuid azp gets a random suffix", func(t *testing.T) {
		first := ConsumerIDFor("portal")
		second := ConsumerIDFor("portal")
		if !strings.HasPrefix(first, "portal-") || first == second {
			t.Fatalf("expected distinct prefixed ids, got %s and %s", first, second)
		}
	})
}

// =============================================================================
// Certificate Binding
// =============================================================================

func (s *ResolverSuite) TestEnsureCertificate() {
	ctx := context.Background()
	pemA := "-----BEGIN CERTIFICATE-----\naaa\n-----END CERTIFICATE-----"
	pemB := "-----BEGIN CERTIFICATE-----\nbbb\n-----END CERTIFICATE-----"

	s.Run("no inbound certificate is a no-op", func() {
		c, err := s.resolver.ResolveConsumer(ctx, s.claims(), nil)
		s.Require().NoError(err)

		bound, err := s.resolver.EnsureCertificate(ctx, c, "")
		s.NoError(err)
		s.False(bound)
	})

	s.Run("first use binds, second identical use passes", func() {
		claims := s.claims()
		claims.Subject = "sub-pin"
		c, err := s.resolver.ResolveConsumer(ctx, claims, nil)
		s.Require().NoError(err)

		bound, err := s.resolver.EnsureCertificate(ctx, c, pemA)
		s.Require().NoError(err)
		s.True(bound)

		again, err := s.consumers.BySubjectAndAzp(ctx, "sub-pin", "portal")
		s.Require().NoError(err)
		bound, err = s.resolver.EnsureCertificate(ctx, again, pemA)
		s.NoError(err)
		s.False(bound, "already bound, nothing to mirror")
	})

	s.Run("whitespace and line endings do not break matching", func() {
		claims := s.claims()
		claims.Subject = "sub-crlf"
		c, err := s.resolver.ResolveConsumer(ctx, claims, nil)
		s.Require().NoError(err)

		_, err = s.resolver.EnsureCertificate(ctx, c, pemA)
		s.Require().NoError(err)

		crlf := strings.ReplaceAll(pemA, "\n", "\r\n") + "\n"
		_, err = s.resolver.EnsureCertificate(ctx, c, crlf)
		s.NoError(err)
	})

	s.Run("mismatch is a hard failure and mutates nothing", func() {
		claims := s.claims()
		claims.Subject = "sub-mismatch"
		c, err := s.resolver.ResolveConsumer(ctx, claims, nil)
		s.Require().NoError(err)

		_, err = s.resolver.EnsureCertificate(ctx, c, pemA)
		s.Require().NoError(err)

		_, err = s.resolver.EnsureCertificate(ctx, c, pemB)
		s.Require().Error(err)
		s.True(failures.Is(err, failures.CodeCertificateMismatch))

		stored, err := s.consumers.BySubjectAndAzp(ctx, "sub-mismatch", "portal")
		s.Require().NoError(err)
		s.Equal(pemA, stored.CertificatePEM, "bound certificate must be unchanged")
	})
}
