package config

import "time"

// S3Config holds settings for the S3-compatible blob bucket backing report
// and photo storage. PublicBaseURL is the externally reachable prefix under
// which uploaded objects are served.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Config holds runtime settings for the sitecheck sync agent.
//
// Fields:
//   - LocalDBPath: path of the local SQLite record store.
//   - BlobDir: directory of the local photo blob store.
//   - RemoteDSN: Postgres DSN of the cloud replica; empty means unconfigured
//     (all sync operations become no-ops).
//   - S3: blob bucket settings; an empty bucket also means unconfigured.
//   - SyncInterval: how often the agent probes connectivity and sweeps
//     pending records.
//   - LogLevel: "debug", "info", "warn" or "error".
type Config struct {
	LocalDBPath  string
	BlobDir      string
	RemoteDSN    string
	S3           S3Config
	SyncInterval time.Duration
	LogLevel     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LocalDBPath = "sitecheck.db"
	c.BlobDir = "photos"
	c.SyncInterval = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
