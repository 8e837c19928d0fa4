package config

import "github.com/dmitrijs2005/gophchat/internal/flagx"

// parseEnv overlays variables from .env and the process environment.
// Malformed durations panic.
func parseEnv(cfg *Config) {
	if err := flagx.LoadDotEnv(); err != nil {
		panic(err)
	}

	flagx.StringEnv(&cfg.ServerEndpointAddr, "SERVER_ADDRESS")
	flagx.StringEnv(&cfg.DatabasePath, "CLIENT_DB_PATH")
	flagx.StringEnv(&cfg.LogBackend, "LOG_BACKEND")
	flagx.StringEnv(&cfg.LogLevel, "LOG_LEVEL")

	for _, err := range []error{
		flagx.DurationEnv(&cfg.OnlineCheckInterval, "ONLINE_CHECK_INTERVAL"),
		flagx.DurationEnv(&cfg.ReconcileInterval, "RECONCILE_INTERVAL"),
	} {
		if err != nil {
			panic(err)
		}
	}
}
