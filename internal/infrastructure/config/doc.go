// Package config provides 12-factor configuration management for the
// playground server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, gzip, session limits)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Engine: Output cap, execution timeout, runtime pool, narration
//   - Catalog: Extra snippet directory and file pattern
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SERVER_GZIP, SERVER_MAX_SESSIONS, SERVER_SESSION_TTL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - ENGINE_MAX_ENTRIES, ENGINE_TIMEOUT, ENGINE_POOL_SIZE, ENGINE_HINTS, ...
//   - CATALOG_DIR, CATALOG_PATTERN
package config
