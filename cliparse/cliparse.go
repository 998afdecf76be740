package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Adjacency policies
const (
	AdjacencyGlobal = "global"
	AdjacencyOwn    = "own"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	GridSize        int
	DailyLimit      int
	SessionDuration time.Duration
	SweepInterval   time.Duration
	AdjacencyPolicy string
	ExemptLoopback  bool

	// TrustProxy makes X-Forwarded-For and X-Real-IP authoritative for the
	// client address. Only enable it behind a proxy that sets them.
	TrustProxy bool

	AdminKey   string
	IPHashSalt string
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first if present; real
// environment variables win over it.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is the normal case in production
	_ = godotenv.Load()

	fs := flag.NewFlagSet("pixelpuzzle", flag.ContinueOnError)

	// Network and storage
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or sqlite file path")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (postgres or sqlite)")
	trustProxy := fs.String("trust-proxy", "", "Take the client IP from proxy headers (true/false)")

	// Game rules
	fs.IntVar(&cfg.GridSize, "grid", 0, "Grid side length")
	fs.IntVar(&cfg.DailyLimit, "limit", 0, "Pixels per identity per day")
	fs.DurationVar(&cfg.SessionDuration, "session", 0, "Idle time before a session's pixels lock")
	fs.DurationVar(&cfg.SweepInterval, "sweep", 0, "Lock sweeper period")
	fs.StringVar(&cfg.AdjacencyPolicy, "adjacency", "", "Adjacency policy (global or own)")
	exempt := fs.String("exempt-loopback", "", "Exempt loopback callers from limits (true/false)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key for /admin routes (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "Salt for hashing visitor IPs (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		// SQLite runs on a single connection; it is meant for local development
		cfg.DatabaseURL = "pixelpuzzle.db"
	}

	var err error
	if cfg.GridSize == 0 {
		if cfg.GridSize, err = envInt("GRID_SIZE", 100); err != nil {
			return Config{}, err
		}
	}
	if cfg.DailyLimit == 0 {
		if cfg.DailyLimit, err = envInt("DAILY_LIMIT", 5); err != nil {
			return Config{}, err
		}
	}
	if cfg.SessionDuration == 0 {
		if cfg.SessionDuration, err = envDuration("SESSION_DURATION", 10*time.Minute); err != nil {
			return Config{}, err
		}
	}
	if cfg.SweepInterval == 0 {
		if cfg.SweepInterval, err = envDuration("SWEEP_INTERVAL", 30*time.Second); err != nil {
			return Config{}, err
		}
	}

	if cfg.AdjacencyPolicy == "" {
		cfg.AdjacencyPolicy = os.Getenv("ADJACENCY_POLICY")
		if cfg.AdjacencyPolicy == "" {
			cfg.AdjacencyPolicy = AdjacencyGlobal
		}
	}
	cfg.AdjacencyPolicy = strings.ToLower(cfg.AdjacencyPolicy)

	if cfg.ExemptLoopback, err = boolSetting(*exempt, "EXEMPT_LOOPBACK", true); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = boolSetting(*trustProxy, "TRUST_PROXY", false); err != nil {
		return Config{}, err
	}

	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the game rule settings.
func (c Config) Validate() error {
	if c.GridSize <= 0 {
		return errors.New("grid size must be positive")
	}
	if c.DailyLimit <= 0 {
		return errors.New("daily limit must be positive")
	}
	if c.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if c.AdjacencyPolicy != AdjacencyGlobal && c.AdjacencyPolicy != AdjacencyOwn {
		return fmt.Errorf("adjacency policy must be %q or %q", AdjacencyGlobal, AdjacencyOwn)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return v, nil
}

// boolSetting parses a true/false flag value, falling back to the env
// variable and then to def.
func boolSetting(flagValue, key string, def bool) (bool, error) {
	if flagValue == "" {
		flagValue = os.Getenv(key)
	}
	if flagValue == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(flagValue)
	if err != nil {
		return false, fmt.Errorf("invalid %s value", key)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return v, nil
}
