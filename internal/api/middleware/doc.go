// Package middleware holds the gin middleware stacked in front of the
// repository API: CORS, per-client and global rate limits, request IDs and
// access logging.
package middleware
