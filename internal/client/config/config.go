package config

import "time"

// Config holds runtime settings for the pup CLI.
//
// Fields:
//   - ServerURL: base URL of the pup HTTP API.
//   - LocalStorePath: SQLite file the session is kept in between runs.
//   - RequestTimeout: limit for one API call, including a refresh and retry.
//   - RefreshTimeout: limit for the shared session refresh.
type Config struct {
	ServerURL      string        `env:"PUP_SERVER_URL"`
	LocalStorePath string        `env:"PUP_LOCAL_STORE"`
	RequestTimeout time.Duration `env:"PUP_REQUEST_TIMEOUT"`
	RefreshTimeout time.Duration `env:"PUP_REFRESH_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.LocalStorePath = "data/pup.db"
	c.RequestTimeout = 30 * time.Second
	c.RefreshTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
