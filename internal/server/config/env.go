package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/pup/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotenv exports variables from the file named by -env, or from ./.env
// when it exists. Variables already present in the environment win.
func loadDotenv() {
	path := flagx.EnvFile()
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(path); err != nil {
		panic(err)
	}
}

// parseEnv overlays fields whose env tag names a set variable. Unset
// variables leave the current value untouched.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
