// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every component of the repository service takes a *zap.Logger. The server
// builds one Logger from configuration and hands out named children with
// Component, so log lines carry the emitting component:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	repo := repository.New(resolver, repository.WithLogger(logger.Component("repository")))
//
// Failed repository operations are logged at error level, skipped copy
// entries at warn level, and HTTP access lines at info level.
package logging
