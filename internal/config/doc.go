// Package config provides configuration for the scrapegoat CLI and server.
//
// Configuration is loaded from SCRAPEGOAT_ prefixed environment variables
// with defaults, and an optional TOML file may overlay it.
//
// Configuration Sections:
//   - Log: level, development console output, output paths
//   - Fetch: timeouts, retries, per-host rate, render mode, page cache
//   - Output: default directory for OUTPUT files
//   - Server: HTTP API address and per-IP rate limiting
//   - Metrics: Prometheus textfile export
//
// Example Usage:
//
//	cfg, err := config.LoadFile("scrapegoat.toml")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Fetch.Timeout)
//
// Environment Variables (selection):
//   - SCRAPEGOAT_LOG_LEVEL, SCRAPEGOAT_LOG_DEVELOPMENT
//   - SCRAPEGOAT_FETCH_TIMEOUT, SCRAPEGOAT_FETCH_RENDER, SCRAPEGOAT_FETCH_CACHE_PATH
//   - SCRAPEGOAT_OUTPUT_DIR
//   - SCRAPEGOAT_SERVER_HOST, SCRAPEGOAT_SERVER_PORT
package config
