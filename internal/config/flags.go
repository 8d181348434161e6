package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-s remote server base URL
//	-d local database file path
//	-c/-config json file path with configs
//	-request-timeout remote request timeout (e.g., "30s", "1m")
//	-sync-interval background sync interval (e.g., "5m")
//	-max-row-retries retry budget per pending operation
func ParseFlags() *StructuredConfig {
	var serverURL string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var maxRowRetries int

	flag.StringVar(&serverURL, "s", "", "Remote server base URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Remote request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	flag.IntVar(&maxRowRetries, "max-row-retries", 0, "Retry budget per pending operation")

	flag.Parse()

	return &StructuredConfig{
		Remote: Remote{
			BaseURL:        serverURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DSN: databaseDSN,
		},
		Sync: Sync{
			Interval:      syncInterval,
			MaxRowRetries: maxRowRetries,
		},
		JSONFilePath: jsonConfigPath,
	}
}
