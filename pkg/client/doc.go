// Package client is a Go client for the henni-repo HTTP API.
//
//	c := client.New("http://localhost:8000")
//	if _, err := c.Upload(ctx, "docs/readme.md", strings.NewReader("# hi")); err != nil {
//		return err
//	}
//	entries, err := c.List(ctx, "docs", client.ListOptions{Glob: "*.md"})
//
// Reads are retried on transient failures. All calls pass through a circuit
// breaker that opens after repeated server errors; 4xx answers do not count
// against it.
package client
