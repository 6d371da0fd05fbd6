// Package config provides 12-factor configuration management for the
// repository service.
//
// Configuration is layered. Defaults come first, then an optional YAML or
// TOML file named by HENNI_CONFIG, then environment variables. The merged
// result is normalized (base directory defaulting and "~/" expansion, URI
// trimming) and validated with go-playground/validator.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout, CORS origins)
//   - Repository: Root directory, public URI and the link following policy
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Serving %s on %s\n", cfg.Repository.BaseDir, cfg.Address())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, CORS_ORIGINS
//   - HENNI_REPO_BASEDIR, HENNI_REPO_URI, HENNI_REPO_FOLLOW_LINKS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
