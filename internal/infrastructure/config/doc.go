// Package config provides 12-factor configuration management for the chatgate backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// A .env file in the working directory is loaded first by cmd/server when present.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Session: Reserved session name and engine selection
//   - Engine: Remote engine worker endpoint
//   - Storage: Session storage root, cache and compression
//   - Media: MIME allow-list and size cap
//   - Webhook: Process-wide webhook appended to every session
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SESSION_NAME, SESSION_ENGINE
//   - ENGINE_ENDPOINT, ENGINE_TIMEOUT
//   - STORAGE_DIR, STORAGE_CACHE_SIZE, STORAGE_COMPRESS
//   - MEDIA_MIMETYPES, MEDIA_MAX_BYTES
//   - WEBHOOK_URL, WEBHOOK_EVENTS, WEBHOOK_HMAC_KEY,
//     WEBHOOK_RETRIES_POLICY, WEBHOOK_RETRIES_DELAY_SECONDS, WEBHOOK_RETRIES_ATTEMPTS
package config
