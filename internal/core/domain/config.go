package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultNamespace is prepended to every persisted key.
	DefaultNamespace = "wicked"

	// DefaultCheckInterval is the period between background update checks.
	DefaultCheckInterval = time.Hour

	// DefaultGraceDelay is the minimum delay before the first background check.
	DefaultGraceDelay = 5 * time.Second

	// DefaultHTTPTimeout bounds a single resource retrieval.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultStorePath is the bolt database used when no path is configured.
	DefaultStorePath = ".wick/store.db"

	// DefaultOrigin scopes the persistent store when no origin is configured.
	DefaultOrigin = "default"

	// DefaultConfigFile is the configuration file looked up by the CLI.
	DefaultConfigFile = "wick.yaml"

	// DirPerm is the permission used for directories created by the store.
	DirPerm = 0o750

	// FilePerm is the permission used for files created by the store.
	FilePerm = 0o600
)

// Store drivers understood by the kv adapter.
const (
	StoreDriverBolt   = "bolt"
	StoreDriverRedis  = "redis"
	StoreDriverFile   = "file"
	StoreDriverMemory = "memory"
)

// Config holds the settings of a client.
type Config struct {
	// Namespace is prepended to all persisted keys.
	Namespace string
	// Salt perturbs the integrity digest of cache entries.
	Salt string
	// RandomSalt is set when Salt was generated because none was configured.
	RandomSalt bool
	// CheckInterval is the period of the background update loop.
	CheckInterval time.Duration
	// GraceDelay floors the delay before the first background check.
	GraceDelay time.Duration
	// HTTPTimeout bounds a single resource retrieval.
	HTTPTimeout time.Duration
	// Preload lists local scripts evaluated into the ambient namespace at startup.
	Preload []string
	// LogJSON switches the logger to JSON output.
	LogJSON bool
	// Store selects and configures the persistent store.
	Store StoreConfig
}

// StoreConfig selects the persistent key/value store.
type StoreConfig struct {
	Driver string
	Path   string
	Addr   string
	Origin string
}

// DefaultConfig returns the configuration used when nothing is configured.
// The salt is random, so cache entries only verify within the same instance
// unless a salt is set explicitly.
func DefaultConfig() Config {
	return Config{
		Namespace:     DefaultNamespace,
		Salt:          NewRandomSalt(),
		RandomSalt:    true,
		CheckInterval: DefaultCheckInterval,
		GraceDelay:    DefaultGraceDelay,
		HTTPTimeout:   DefaultHTTPTimeout,
		Store: StoreConfig{
			Driver: StoreDriverBolt,
			Path:   DefaultStorePath,
			Origin: DefaultOrigin,
		},
	}
}

// NewRandomSalt returns a fresh random salt.
func NewRandomSalt() string {
	return uuid.NewString()
}
