package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full environment surface of gatekeeperd.  Everything is
// prefixed GATEKEEPER_, e.g. GATEKEEPER_AUTHORITY_URL.
type Config struct {
	Env      string `envconfig:"ENV" default:"dev"` // "dev" | "prod"
	ModuleID string `envconfig:"MODULE_ID" default:"door-001"`

	// Authority
	AuthorityURL   string        `envconfig:"AUTHORITY_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"3s"`

	// Decision pipeline
	CacheMaxAge  time.Duration `envconfig:"CACHE_MAX_AGE" default:"12h"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`

	// Hardware feeds.  ReaderPath is the line-oriented scan feed from
	// the RFID driver; LatchPath is the relay controller's command pipe
	// (empty = log-only latch, useful on a bench).
	ReaderPath string `envconfig:"READER_PATH" required:"true"`
	LatchPath  string `envconfig:"LATCH_PATH" default:""`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"./data/gatekeeper.db"`

	// Background services
	HeartbeatInterval  time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"60s"`
	EventRetentionDays int           `envconfig:"EVENT_RETENTION_DAYS" default:"30"`
	PruneIntervalHours int           `envconfig:"PRUNE_INTERVAL_HOURS" default:"6"`

	// Local status endpoint
	StatusAddr string `envconfig:"STATUS_ADDR" default:":8081"`

	FirmwareVersion string `envconfig:"FIRMWARE_VERSION" default:""`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("GATEKEEPER", &c); err != nil {
		return Config{}, err
	}
	if c.Env != "dev" && c.Env != "prod" {
		c.Env = "dev"
	}
	return c, nil
}
