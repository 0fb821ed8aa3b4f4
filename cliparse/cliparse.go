package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store types
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreFile     = "file"
)

const (
	defaultPort            = 3318
	defaultDataDir         = "./questions_bank"
	defaultSQLitePath      = "./questions_bank/survey.db"
	defaultSessionLifetime = 10 // minutes
)

type Config struct {
	Port            int
	StoreType       string
	DatabaseURL     string
	DataDir         string
	SessionLifetime time.Duration
	SessionSecret   string
}

// LoadEnvFile reads KEY=value pairs from path into the environment.
// A missing file is not an error; variables that are already set win.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var lifetimeMinutes int

	fs := flag.NewFlagSet("livesurvey", flag.ContinueOnError)

	// Network and storage config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.StoreType, "t", "", "Store type (sqlite, postgres or file)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (sqlite path or postgres DSN)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "Directory for the file store")
	fs.IntVar(&lifetimeMinutes, "session-lifetime", 0, "Session idle timeout in minutes")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session cookie secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}

	if cfg.StoreType == "" {
		cfg.StoreType = os.Getenv("STORE_TYPE")
		if cfg.StoreType == "" {
			cfg.StoreType = StoreSQLite
		}
	}
	switch cfg.StoreType {
	case StoreSQLite, StorePostgres, StoreFile:
	default:
		return Config{}, fmt.Errorf("unknown store type %q (use sqlite, postgres or file)", cfg.StoreType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		switch cfg.StoreType {
		case StoreSQLite:
			cfg.DatabaseURL = defaultSQLitePath
		case StorePostgres:
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
		if cfg.DataDir == "" {
			cfg.DataDir = defaultDataDir
		}
	}

	if lifetimeMinutes == 0 {
		if s := os.Getenv("PERMANENT_SESSION_LIFETIME"); s != "" {
			minutes, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid PERMANENT_SESSION_LIFETIME env variable")
			}
			lifetimeMinutes = minutes
		} else {
			lifetimeMinutes = defaultSessionLifetime
		}
	}
	if lifetimeMinutes <= 0 {
		return Config{}, errors.New("session lifetime must be positive")
	}
	cfg.SessionLifetime = time.Duration(lifetimeMinutes) * time.Minute

	// Secret - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	return cfg, nil
}
