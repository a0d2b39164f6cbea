package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

// Config aggregates runtime configuration for the gateway server.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Logger   LoggerConfig   `envPrefix:"LOG_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Upstream UpstreamConfig `envPrefix:"UPSTREAM_"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"NAME"                    envDefault:"library-gateway"`
	Env                   string `env:"ENV"                     envDefault:"development"`
	Host                  string `env:"HOST"                    envDefault:"0.0.0.0"`
	Port                  string `env:"PORT"                    envDefault:"8080"`
	Version               string `env:"VERSION"                 envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"DSN"`
	MaxConns       int32  `env:"MAX_CONNS"                envDefault:"10"`
	MinConns       int32  `env:"MIN_CONNS"                envDefault:"2"`
	RunMigrations  bool   `env:"RUN_MIGRATIONS"           envDefault:"true"`
	ConnMaxIdleSec int32  `env:"CONN_MAX_IDLE_SECONDS"    envDefault:"30"`
	ConnMaxLifeSec int32  `env:"CONN_MAX_LIFE_SECONDS"    envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"127.0.0.1:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// AuthConfig defines credential verification parameters.
type AuthConfig struct {
	// JWTSecret verifies credential signatures. There is no default: a
	// gateway without it cannot tell valid credentials from forged ones.
	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	CookieName       string        `env:"COOKIE_NAME"        envDefault:"token"`
	CookieSecure     bool          `env:"COOKIE_SECURE"      envDefault:"false"`
	ClockSkew        time.Duration `env:"CLOCK_SKEW"         envDefault:"0s"`
	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"30s"`
}

// UpstreamConfig points at the front end that serves the pages.
type UpstreamConfig struct {
	URL string `env:"URL"`
}

// ClientConfig configures the session client used by perpusctl.
type ClientConfig struct {
	APIURL         string        `env:"PERPUS_API_URL"         envDefault:"http://127.0.0.1:8080"`
	CredentialFile string        `env:"PERPUS_CREDENTIAL_FILE"`
	CookieName     string        `env:"PERPUS_COOKIE_NAME"     envDefault:"token"`
	Timeout        time.Duration `env:"PERPUS_TIMEOUT"         envDefault:"10s"`
	Logger         LoggerConfig  `envPrefix:"PERPUS_LOG_"`
}

// Load reads gateway configuration from the environment (and an optional
// .env file). A missing signing secret is a configuration error.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings env tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return apperrors.NewConfigurationError("AUTH_JWT_SECRET must be set")
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		return apperrors.NewConfigurationError("AUTH_COOKIE_NAME must not be blank")
	}
	return nil
}

// LoadClient reads the session client configuration.
func LoadClient() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	if cfg.CredentialFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.CredentialFile = filepath.Join(dir, "perpus", "credential.yaml")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	return nil
}
