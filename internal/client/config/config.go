// Package config loads runtime settings for the gophchat CLI.
//
// Sources, each overriding the previous:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. The environment, optionally seeded from a .env file.
//  3. A JSON file named with -c or -config.
//  4. Command-line flags.
//
// The JSON file accepts durations as strings ("3s") or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "reconcile_interval": "30s",
//	  "database_path": "gophchat.db",
//	  "log_backend": "text",
//	  "log_level": "warn"
//	}
package config

import "time"

// Config holds runtime settings for the gophchat CLI.
//
// OnlineCheckInterval paces the server reachability probe shown in the
// prompt. ReconcileInterval paces the background refetch of folders and
// conversations; zero turns it off. DatabasePath is the local SQLite file
// holding the saved session.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	ReconcileInterval   time.Duration
	DatabasePath        string
	LogBackend          string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.ReconcileInterval = 30 * time.Second
	c.DatabasePath = "gophchat.db"
	c.LogBackend = "text"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment, JSON (if present) and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
