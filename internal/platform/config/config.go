// Package config maps environment variables onto a typed configuration with
// caarlos0/env, so main stays lean and every default lives in one place.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"provenance/pkg/domain"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all runtime configuration for the provenance server.
type Config struct {
	Server   Server
	Log      Log
	Storage  Storage
	Redis    RedisConfig
	Kafka    Kafka
	Auth     Auth
	Registry Registry
	Tracing  Tracing
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"PROVENANCE_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Storage struct {
	Driver      string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	DatabaseURL string        `env:"DATABASE_URL"`
	TxTimeout   time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	AutoMigrate bool          `env:"AUTO_MIGRATE" envDefault:"false"`
}

// RedisConfig configures the optional shared name-lookup cache.
// An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	NameCacheTTL time.Duration `env:"NAME_CACHE_TTL" envDefault:"24h"`
}

// Kafka configures the outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_EVENTS_TOPIC" envDefault:"provenance.events"`
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"provenance"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

// Registry identifies the deployer and the factory.
type Registry struct {
	Owner   domain.Address `env:"REGISTRY_OWNER_ADDRESS" envDefault:"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"`
	Factory domain.Address `env:"FACTORY_ADDRESS" envDefault:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
}

type Tracing struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter     string  `env:"TRACING_EXPORTER" envDefault:"stdout"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
	ServiceName  string  `env:"TRACING_SERVICE_NAME" envDefault:"provenance"`
}

// Load parses the environment into a Config and checks cross-field rules.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if len(c.Kafka.Brokers) > 0 && c.Storage.Driver != DriverPostgres {
		return fmt.Errorf("config: KAFKA_BROKERS requires the postgres driver")
	}
	if c.Registry.Owner.IsZero() {
		return fmt.Errorf("config: REGISTRY_OWNER_ADDRESS must not be the zero address")
	}
	if c.Registry.Factory.IsZero() {
		return fmt.Errorf("config: FACTORY_ADDRESS must not be the zero address")
	}
	return nil
}
