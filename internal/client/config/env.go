package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays fields whose PUP_* variable is set.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
