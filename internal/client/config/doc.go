// Package config loads runtime configuration for the pup CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. PUP_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the pup API
//	-d string   path of the local session store
//	-t int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "local_store_path": "data/pup.db",
//	  "request_timeout": "30s",
//	  "refresh_timeout": "15s"
//	}
package config
