// Package server assembles the repository service: it creates the
// repository root, the repository facade, metrics and the gin router with
// its middleware, and runs the HTTP server with graceful shutdown.
package server
