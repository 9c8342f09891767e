package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/jbeckett/shelfsync/internal/errors"
)

// Sync modes.
const (
	ModePull          = "pull"
	ModePush          = "push"
	ModeBidirectional = "bidirectional"
)

// Conflict policies.
const (
	ConflictPreserveLocal = "preserve-local"
	ConflictInteractive   = "interactive"
)

// Config holds all environment-based configuration for shelfsync.
type Config struct {
	// Shelf server endpoint and static API token credentials (required).
	ShelfURL    string `env:"SHELF_URL"`
	TokenID     string `env:"SHELF_TOKEN_ID"`
	TokenSecret string `env:"SHELF_TOKEN_SECRET"`

	// Directory holding the local document tree (required).
	SyncDir string `env:"SYNC_DIR"`

	// Default sync direction for `shelfsync sync` and daemon runs.
	Mode string `env:"SYNC_MODE" envDefault:"bidirectional"`

	// What to do when both sides changed a document.
	ConflictPolicy string `env:"CONFLICT_POLICY" envDefault:"preserve-local"`

	// Interval between daemon-triggered runs.
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"5m"`

	// Tolerance added to last_synced when detecting local edits,
	// absorbing filesystem timestamp coarseness and the engine's own
	// write-then-stat race.
	MTimeBuffer time.Duration `env:"MTIME_BUFFER" envDefault:"1s"`

	// Whether untracked local folders become remote sub-collections
	// during push-capable runs.
	CreateSubCollections bool `env:"CREATE_SUBCOLLECTIONS" envDefault:"true"`

	// Restrict syncing to these collection ids. Empty means all.
	CollectionIDs []int64 `env:"COLLECTION_IDS" envSeparator:","`

	// Overrides the state database location (~/.shelfsync/state.db).
	StatePath string `env:"STATE_PATH"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables. It first
// attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve SyncDir to an absolute path at startup. Downstream path
	// traversal checks rely on string prefix comparison, which only
	// works reliably with absolute paths.
	absDir, err := filepath.Abs(cfg.SyncDir)
	if err != nil {
		return nil, fmt.Errorf("resolving sync dir to absolute path: %w", err)
	}

	cfg.SyncDir = absDir

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShelfURL == "" {
		return fmt.Errorf("%w: SHELF_URL is required", apperrors.ErrMissingEndpoint)
	}

	if c.TokenID == "" || c.TokenSecret == "" {
		return fmt.Errorf("%w: SHELF_TOKEN_ID and SHELF_TOKEN_SECRET are required", apperrors.ErrMissingCredentials)
	}

	if c.SyncDir == "" {
		return fmt.Errorf("SYNC_DIR is required")
	}

	switch c.Mode {
	case ModePull, ModePush, ModeBidirectional:
	default:
		return fmt.Errorf("SYNC_MODE must be one of pull, push, bidirectional (got %q)", c.Mode)
	}

	switch c.ConflictPolicy {
	case ConflictPreserveLocal, ConflictInteractive:
	default:
		return fmt.Errorf("CONFLICT_POLICY must be preserve-local or interactive (got %q)", c.ConflictPolicy)
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive (got %s)", c.SyncInterval)
	}

	if c.MTimeBuffer < 0 {
		return fmt.Errorf("MTIME_BUFFER must not be negative (got %s)", c.MTimeBuffer)
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
