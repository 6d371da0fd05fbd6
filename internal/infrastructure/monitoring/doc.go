/*
Package monitoring provides metrics collection for the repository service.

# Overview

This package implements Prometheus-based metrics for the HTTP surface and
for the repository operations beneath it. Each Metrics value owns its
registry.

# Features

- HTTP request metrics (latency, throughput, size) labelled by route pattern
- Repository operation metrics (count by outcome and error kind, duration)
- Uptime gauge computed at scrape time
- A JSON-friendly Snapshot for the health endpoint

# Usage

	metrics := monitoring.NewMetrics()

	// Repository operations report through the Recorder hook
	repo := repository.New(resolver, repository.WithRecorder(metrics))

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
