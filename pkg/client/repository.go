package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// Resource describes one entry of the repository as reported by the server.
type Resource struct {
	RepositoryPath   string     `json:"repositoryPath"`
	Exists           bool       `json:"exists"`
	CanRead          bool       `json:"canRead"`
	CanWrite         bool       `json:"canWrite"`
	IsFile           bool       `json:"file"`
	IsDirectory      bool       `json:"directory"`
	IsHidden         bool       `json:"hidden"`
	CreationTime     *time.Time `json:"creationTime,omitempty"`
	LastAccessTime   *time.Time `json:"lastAccessTime,omitempty"`
	LastModifiedTime *time.Time `json:"lastModifiedTime,omitempty"`
	Size             int64      `json:"size"`
}

// ListOptions filters a listing.
type ListOptions struct {
	Hidden bool
	Glob   string
}

// Health is the server's health report.
type Health struct {
	Status     string `json:"status"`
	Repository struct {
		URI      string `json:"uri"`
		Exists   bool   `json:"exists"`
		Readable bool   `json:"readable"`
		Writable bool   `json:"writable"`
	} `json:"repository"`
}

// Health fetches the server's health report. An unhealthy server answers
// with an *APIError carrying 503.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.call(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Info describes the resource at p. A missing resource has Exists=false.
func (c *Client) Info(ctx context.Context, p string) (*Resource, error) {
	return c.resource(ctx, http.MethodGet, p, nil)
}

// List describes the children of the directory at p.
func (c *Client) List(ctx context.Context, p string, opts ListOptions) ([]Resource, error) {
	query := map[string]string{"list": ""}
	if opts.Hidden {
		query["hidden"] = "true"
	}
	if opts.Glob != "" {
		query["glob"] = opts.Glob
	}

	var out []Resource
	if err := c.call(ctx, http.MethodGet, resourcePath(p), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download copies the content of the file at p to w.
func (c *Client) Download(ctx context.Context, p string, w io.Writer) (int64, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return 0, err
	}
	req.SetQueryParam("content", "").SetDoNotParseResponse(true)

	resp, err := c.execute(req, http.MethodGet, resourcePath(p))
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		// The error document was not parsed, read it here
		var apiErr *APIError
		if errors.As(err, &apiErr) && resp != nil && resp.RawBody() != nil {
			var body errorBody
			if json.NewDecoder(resp.RawBody()).Decode(&body) == nil {
				apiErr.Message = body.Error
			}
		}
		return 0, err
	}
	return io.Copy(w, resp.RawBody())
}

// Upload replaces the content of the file at p with r, creating the file
// and its parent directories when needed.
func (c *Client) Upload(ctx context.Context, p string, r io.Reader) (*Resource, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}
	var out Resource
	req.SetHeader("Content-Type", "application/octet-stream").SetBody(r).SetResult(&out)
	if _, err := c.execute(req, http.MethodPut, resourcePath(p)); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFile creates an empty file at p.
func (c *Client) CreateFile(ctx context.Context, p string) (*Resource, error) {
	return c.resource(ctx, http.MethodPut, p, map[string]string{"file": ""})
}

// CreateDirectories creates the directory at p and its missing parents.
func (c *Client) CreateDirectories(ctx context.Context, p string) (*Resource, error) {
	return c.resource(ctx, http.MethodPut, p, map[string]string{"folder": ""})
}

// Zip archives the resource at p into target. An empty target lets the
// server name the archive after the resource.
func (c *Client) Zip(ctx context.Context, p, target string) (*Resource, error) {
	return c.resource(ctx, http.MethodPut, p, map[string]string{"zip": target})
}

// Unzip extracts the archive at p into the directory target. An empty
// target extracts next to the archive.
func (c *Client) Unzip(ctx context.Context, p, target string) (*Resource, error) {
	return c.resource(ctx, http.MethodPut, p, map[string]string{"unzip": target})
}

// Copy copies the resource at p to target.
func (c *Client) Copy(ctx context.Context, p, target string) (*Resource, error) {
	return c.resource(ctx, http.MethodPost, p, map[string]string{"copy": target})
}

// Move moves the resource at p to target.
func (c *Client) Move(ctx context.Context, p, target string) (*Resource, error) {
	return c.resource(ctx, http.MethodPost, p, map[string]string{"move": target})
}

// Delete removes the resource at p. The server answers false instead of an
// error when the deletion fails.
func (c *Client) Delete(ctx context.Context, p string) (bool, error) {
	var ok bool
	if err := c.call(ctx, http.MethodDelete, resourcePath(p), nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) resource(ctx context.Context, method, p string, query map[string]string) (*Resource, error) {
	var out Resource
	if err := c.call(ctx, method, resourcePath(p), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends a request and decodes the JSON answer into out.
func (c *Client) call(ctx context.Context, method, path string, query map[string]string, out interface{}) error {
	req, err := c.Request(ctx)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	req.SetResult(out)

	_, err = c.execute(req, method, path)
	return err
}
