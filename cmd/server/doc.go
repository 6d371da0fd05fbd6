// Package main is the entry point for the henni-repo server.
//
// The server exposes one directory tree as a file repository over HTTP
// under /api/repo/v1.
//
// Configuration:
//   - Defaults for development
//   - Optional config file (-config or HENNI_CONFIG, YAML or TOML)
//   - Environment variables (PORT, HENNI_REPO_BASEDIR, HENNI_REPO_URI, LOG_LEVEL, ...)
//   - CLI flags (override everything else)
//
// Usage:
//
//	# Production mode
//	./server -config /etc/henni-repo.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -basedir ~/henni-repo -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
