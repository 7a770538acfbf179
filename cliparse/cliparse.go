package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Database types accepted by -t / DATABASE_TYPE
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMongo    = "mongo"
)

type Config struct {
	Port               int           `envconfig:"PORT" default:"3318"`
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	DatabaseType       string        `envconfig:"DATABASE_TYPE" default:"sqlite"`
	MongoDatabase      string        `envconfig:"MONGO_DATABASE" default:"pollcast"`
	RedisURL           string        `envconfig:"REDIS_URL"`
	RedisChannelPrefix string        `envconfig:"REDIS_CHANNEL_PREFIX" default:"pollcast:poll:"`
	IPHashSalt         string        `envconfig:"IP_HASH_SALT"`
	StoreTimeout       time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	StreamKeepalive    time.Duration `envconfig:"STREAM_KEEPALIVE" default:"25s"`
	CORSOrigin         string        `envconfig:"CORS_ORIGIN"`
}

// ParseFlags loads .env (if present), reads the environment, then applies
// command-line overrides and validates the result.
func ParseFlags(args []string) (Config, error) {
	// Missing .env is fine; real environment variables take precedence
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	fs := flag.NewFlagSet("pollcast", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or mongo)")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for cross-instance broadcast (optional)")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", cfg.CORSOrigin, "Allowed CORS origin (optional)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", cfg.IPHashSalt, "IP hash salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseMongo:
	default:
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite, postgres or mongo)", cfg.DatabaseType)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	if cfg.StoreTimeout <= 0 {
		return Config{}, errors.New("STORE_TIMEOUT must be positive")
	}
	if cfg.StreamKeepalive <= 0 {
		return Config{}, errors.New("STREAM_KEEPALIVE must be positive")
	}

	// Secrets - MUST be provided
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	return cfg, nil
}
