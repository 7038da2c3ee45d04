// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory    = "memory"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverPostgres  = "postgres"
)

// Config holds every runtime setting. It is built once in main and passed
// to the components that need it.
type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	AppEnv   string `env:"APP_ENV"   envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AdminToken        string `env:"ADMIN_TOKEN"`
	PublicSubmissions bool   `env:"PUBLIC_SUBMISSIONS"`

	AllowedOrigins  []string `env:"ALLOWED_ORIGINS"   envSeparator:","`
	AllowNullOrigin bool     `env:"ALLOW_NULL_ORIGIN"`

	StoreDriver         string        `env:"STORE_DRIVER"          envDefault:"memory"`
	StoreConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" envDefault:"30s"`

	MongoURI string `env:"MONGODB_URI"`
	DBName   string `env:"DB_NAME"     envDefault:"djdb"`

	DatabaseURL string `env:"DATABASE_URL"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	GoogleCredentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirestoreEmulator string `env:"FIRESTORE_EMULATOR_HOST"`

	RateLimit string `env:"RATE_LIMIT" envDefault:"120-M"`
	RedisURL  string `env:"REDIS_URL"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(environ(os.Environ()))
}

// LoadFrom builds a Config from an explicit environment map.
func LoadFrom(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.MongoURI == "" {
		cfg.MongoURI = firstNonEmpty(vars["MONGO_URL"], vars["MONGODB_URL"])
	}
	if cfg.FirebaseProjectID == "" {
		cfg.FirebaseProjectID = vars["GOOGLE_CLOUD_PROJECT"]
	}

	origins := cfg.AllowedOrigins[:0]
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown store drivers and drivers missing their
// connection settings.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("config: firestore driver requires FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("config: mongo driver requires MONGODB_URI")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: postgres driver requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// AuthEnabled reports whether an admin token is configured.
func (c Config) AuthEnabled() bool {
	return c.AdminToken != ""
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func environ(kv []string) map[string]string {
	m := make(map[string]string, len(kv))
	for _, e := range kv {
		if k, v, ok := strings.Cut(e, "="); ok {
			m[k] = v
		}
	}
	return m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
