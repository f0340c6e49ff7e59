// Package config loads the process configuration from environment
// variables. One Config value is built in main and handed down; nothing
// reads the environment after startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Server Server
	OAuth2 OAuth2
	Store  Store
	Audit  Audit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"AUTHGATE_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"AUTHGATE_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"AUTHGATE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// OAuth2 configures the authentication pipeline and its providers.
type OAuth2 struct {
	Enabled bool `env:"OAUTH2_ENABLED" envDefault:"true"`

	// JWKSAddresses lists all trusted key set endpoints. Each entry may
	// carry multiple comma-separated addresses.
	JWKSAddresses []string `env:"OAUTH2_JWKS_ADDRESSES" envSeparator:";"`

	GoogleIssuer string `env:"OAUTH2_GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	AzureIssuer  string `env:"OAUTH2_AZURE_ISSUER" envDefault:"https://login.microsoftonline.com"`

	OBPIssuer        string `env:"OAUTH2_OBP_ISSUER"`
	OBPUsersAreLocal bool   `env:"OAUTH2_OBP_USERS_ARE_LOCAL" envDefault:"false"`

	KeycloakIssuer          string   `env:"OAUTH2_KEYCLOAK_ISSUER"`
	KeycloakRoleSyncEnabled bool     `env:"OAUTH2_KEYCLOAK_ROLE_SYNC_ENABLED" envDefault:"false"`
	KeycloakRoleClaimPath   string   `env:"OAUTH2_KEYCLOAK_ROLE_CLAIM_PATH" envDefault:"realm_access.roles"`
	KeycloakRecognizedRoles []string `env:"OAUTH2_KEYCLOAK_RECOGNIZED_ROLES" envSeparator:","`

	HydraEnabled       bool          `env:"OAUTH2_HYDRA_ENABLED" envDefault:"false"`
	HydraAdminURL      string        `env:"OAUTH2_HYDRA_ADMIN_URL"`
	HydraTimeout       time.Duration `env:"OAUTH2_HYDRA_TIMEOUT" envDefault:"10s"`
	HydraUsersAreLocal bool          `env:"OAUTH2_HYDRA_USERS_ARE_LOCAL" envDefault:"false"`

	// AllowedClientAuthMethods restricts introspected clients by their
	// token endpoint auth method. Empty means no restriction.
	AllowedClientAuthMethods []string `env:"OAUTH2_ALLOWED_CLIENT_AUTH_METHODS" envSeparator:","`

	// ClientCertHeader names the request header carrying the caller's
	// transport certificate, set by the terminating proxy.
	ClientCertHeader string `env:"OAUTH2_CLIENT_CERT_HEADER" envDefault:"PSD2-CERT"`

	// LocalProviderName is the identity namespace users land in when a
	// provider is flagged users-are-local.
	LocalProviderName string `env:"OAUTH2_LOCAL_PROVIDER_NAME" envDefault:"authgate"`

	AsyncWorkers    int `env:"OAUTH2_ASYNC_WORKERS" envDefault:"8"`
	AsyncQueueDepth int `env:"OAUTH2_ASYNC_QUEUE_DEPTH" envDefault:"64"`
}

// Store configures the persistence backends. Empty URLs select the
// in-memory implementations, which keeps the binary bootable with no
// external services.
type Store struct {
	PostgresURL string `env:"POSTGRES_URL"`

	RedisURL          string        `env:"REDIS_URL"`
	RedisPoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	RedisDialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	RedisReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	RedisWriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Audit configures the audit event publisher. Without brokers, events
// go to the in-memory publisher.
type Audit struct {
	KafkaBrokers []string `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AUDIT_KAFKA_TOPIC" envDefault:"authgate.audit"`
}

// Load parses the full configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
