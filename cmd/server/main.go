package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/internal/oauth2/handler"
	"authgate/internal/oauth2/hydra"
	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/metrics"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/policy"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/providers"
	"authgate/internal/oauth2/service"
	consumerStore "authgate/internal/oauth2/store/consumer"
	loginattemptStore "authgate/internal/oauth2/store/loginattempt"
	scopeStore "authgate/internal/oauth2/store/scope"
	userStore "authgate/internal/oauth2/store/user"
	"authgate/internal/oauth2/token"
	"authgate/internal/platform/config"
	"authgate/internal/platform/httpserver"
	"authgate/internal/platform/logger"
	"authgate/internal/platform/postgres"
	"authgate/internal/platform/redis"
	"authgate/pkg/async"
	"authgate/pkg/audit"
)

// main wires high-level dependencies and owns the process lifecycle.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pool, err := postgres.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	redisClient, err := redis.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	users, consumers, scopes, attempts := buildStores(pool, redisClient)

	publisher, err := buildPublisher(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	if kafka, ok := publisher.(*audit.KafkaPublisher); ok {
		defer func() { _ = kafka.Close(context.Background()) }()
	}

	m := metrics.New()

	resolver, err := identity.New(users, consumers,
		identity.WithLogger(log),
		identity.WithMetrics(m),
		identity.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	validator := token.NewValidator(cfg.OAuth2.JWKSAddresses)
	registry := buildRegistry(cfg.OAuth2, validator, resolver, consumers, scopes, m, publisher, log)

	lockout := policy.NewLockout(attempts,
		policy.WithLockoutLogger(log),
		policy.WithLockoutAuditPublisher(publisher),
	)

	workers := async.NewPool(cfg.OAuth2.AsyncWorkers, cfg.OAuth2.AsyncQueueDepth)
	defer workers.Close()

	svc := service.New(cfg.OAuth2.Enabled, registry, lockout,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithPool(workers),
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting authgate", "addr", cfg.Server.Addr, "oauth2_enabled", cfg.OAuth2.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// buildStores picks the persistent implementations when their backends
// are configured and the in-memory ones otherwise.
func buildStores(pool *pgxpool.Pool, redisClient *redis.Client) (ports.UserStore, ports.ConsumerStore, ports.ScopeStore, ports.LoginAttemptStore) {
	var (
		users     ports.UserStore         = userStore.NewInMemory()
		consumers ports.ConsumerStore     = consumerStore.NewInMemory()
		scopes    ports.ScopeStore        = scopeStore.NewInMemory()
		attempts  ports.LoginAttemptStore = loginattemptStore.NewInMemory()
	)
	if pool != nil {
		users = userStore.NewPostgres(pool)
		consumers = consumerStore.NewPostgres(pool)
		scopes = scopeStore.NewPostgres(pool)
	}
	if redisClient != nil {
		attempts = loginattemptStore.NewRedis(redisClient.Client)
	}
	return users, consumers, scopes, attempts
}

func buildPublisher(ctx context.Context, cfg config.Audit, log *slog.Logger) (audit.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewMemoryPublisher(), nil
	}
	return audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
}

// buildRegistry assembles the provider chain. Order matters: specific
// issuer predicates first, then the JWT fallback, then introspection.
func buildRegistry(cfg config.OAuth2, validator ports.TokenValidator, resolver *identity.Resolver,
	consumers ports.ConsumerStore, scopes ports.ScopeStore, m *metrics.Metrics,
	publisher audit.Publisher, log *slog.Logger) *providers.Registry {

	chain := []providers.Provider{
		providers.NewOIDC(models.ProviderDescriptor{Name: "google-oidc", Issuer: cfg.GoogleIssuer},
			validator, resolver),
		providers.NewOIDC(models.ProviderDescriptor{Name: "azure-oidc", Issuer: cfg.AzureIssuer},
			validator, resolver),
	}

	if cfg.OBPIssuer != "" {
		chain = append(chain, providers.NewOBP("obp-oidc", cfg.OBPIssuer, validator, resolver,
			cfg.OBPUsersAreLocal, cfg.LocalProviderName))
	}

	if cfg.KeycloakIssuer != "" {
		var roleSync *policy.RoleSync
		if cfg.KeycloakRoleSyncEnabled {
			roleSync = policy.NewRoleSync(scopes, cfg.KeycloakRoleClaimPath, cfg.KeycloakRecognizedRoles,
				policy.WithRoleSyncLogger(log),
				policy.WithRoleSyncMetrics(m),
				policy.WithRoleSyncAuditPublisher(publisher),
			)
		}
		chain = append(chain, providers.NewKeycloak("keycloak", cfg.KeycloakIssuer, validator, resolver,
			roleSync))
	}

	chain = append(chain, providers.NewFallback("unknown-fallback", validator, resolver, log))

	if cfg.HydraEnabled && cfg.HydraAdminURL != "" {
		client := hydra.New(cfg.HydraAdminURL, cfg.HydraTimeout)
		chain = append(chain, providers.NewHydra("hydra", client, consumers, resolver,
			cfg.AllowedClientAuthMethods, cfg.ClientCertHeader,
			cfg.HydraUsersAreLocal, cfg.LocalProviderName, log))
	}

	return providers.NewRegistry(log, chain...)
}
