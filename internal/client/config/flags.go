package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pup/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the pup API
//	-d string   path of the local session store
//	-t int      request timeout in seconds
//
// Only these flags are looked at; everything else in os.Args is left for
// the command itself.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the pup API")
	fs.StringVar(&cfg.LocalStorePath, "d", cfg.LocalStorePath, "path of the local session store")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
