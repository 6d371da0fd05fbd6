package http

import (
	"bytes"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/arpablo/henni-repo/internal/repository"
	"github.com/arpablo/henni-repo/internal/shared/paths"
)

// sniffLen is how much of a file is read to detect its content type.
const sniffLen = 3072

// Get serves info, listings and content.
//
//	GET /api/repo/v1/<path>                      -> snapshot
//	GET /api/repo/v1/<path>?list[&hidden][&glob] -> snapshots of the children
//	GET /api/repo/v1/<path>?content              -> file content
func (h *Handlers) Get(c *gin.Context) {
	p := repoPath(c)

	switch {
	case hasQuery(c, "content"):
		h.content(c, p)
	case hasQuery(c, "list"):
		entries, err := h.repo.List(p, repositoryListOptions(c))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	default:
		c.JSON(http.StatusOK, h.repo.Info(p))
	}
}

// Put creates and changes resources.
//
//	PUT <path>?folder          -> create directories
//	PUT <path>?file            -> create an empty file
//	PUT <path>?zip[=<target>]  -> archive the resource
//	PUT <path>?unzip[=<dir>]   -> extract the archive
//	PUT <path> with a body     -> replace the content
func (h *Handlers) Put(c *gin.Context) {
	p := repoPath(c)

	var (
		snap filesystem.Snapshot
		err  error
	)
	switch {
	case hasQuery(c, "folder"):
		snap, err = h.repo.CreateDirectories(p)
	case hasQuery(c, "file"):
		snap, err = h.repo.CreateFile(p)
	case hasQuery(c, "zip"):
		snap, err = h.zip(p, c.Query("zip"))
	case hasQuery(c, "unzip"):
		target := c.Query("unzip")
		if target == "" {
			target = paths.Parent(p)
		}
		snap, err = h.repo.Unzip(p, target)
	case c.Request.ContentLength == 0 && !h.repo.Exists(p):
		snap, err = h.repo.CreateFile(p)
	default:
		snap, err = h.repo.SetContent(p, c.Request.Body)
	}

	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Post copies or moves a resource.
//
//	POST <path>?copy=<target>
//	POST <path>?move=<target>
func (h *Handlers) Post(c *gin.Context) {
	p := repoPath(c)

	var (
		snap filesystem.Snapshot
		err  error
	)
	if target, ok := c.GetQuery("copy"); ok {
		snap, err = h.repo.Copy(p, target)
	} else if target, ok := c.GetQuery("move"); ok {
		snap, err = h.repo.Move(p, target)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a copy or move parameter"})
		return
	}

	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Delete removes a resource and answers with a JSON boolean.
func (h *Handlers) Delete(c *gin.Context) {
	p := repoPath(c)

	if err := h.repo.Delete(p); err != nil {
		_ = c.Error(err)
		h.logger.Warn("Delete failed", zap.String("path", p), zap.Error(err))
		c.JSON(http.StatusOK, false)
		return
	}
	c.JSON(http.StatusOK, true)
}

func (h *Handlers) content(c *gin.Context, p string) {
	info := h.repo.Info(p)
	if !info.Exists || !info.CanRead {
		h.fail(c, filesystem.NotAccessible(repository.OpOpen, p, fs.ErrNotExist))
		return
	}
	if info.IsDirectory {
		h.fail(c, filesystem.InvalidResource(repository.OpOpen, p, "path is a directory"))
		return
	}

	rc, err := h.repo.Open(p)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		h.fail(c, err)
		return
	}
	head = head[:n]

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()})
	c.DataFromReader(http.StatusOK, info.Size, contentType(info.Name(), head),
		io.MultiReader(bytes.NewReader(head), rc),
		map[string]string{"Content-Disposition": disposition},
	)
}

// zip archives p. Without a target the archive is named after the resource.
func (h *Handlers) zip(p, target string) (filesystem.Snapshot, error) {
	info := h.repo.Info(p)
	if !info.Exists || !info.CanRead {
		return filesystem.Snapshot{}, filesystem.NotAccessible(repository.OpZip, p, fs.ErrNotExist)
	}
	if target == "" {
		target = h.repo.DefaultArchivePath(p)
	}
	h.logger.Debug("Zipping resource", zap.String("source", p), zap.String("target", target))
	return h.repo.Zip(p, target)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch filesystem.KindOf(err) {
	case filesystem.KindNotAccessible:
		return http.StatusNotFound
	case filesystem.KindInvalidResource:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// contentType detects the media type from the leading bytes and falls back
// to the file extension when detection is inconclusive.
func contentType(name string, head []byte) string {
	detected := mimetype.Detect(head)
	if !detected.Is("text/plain") && !detected.Is("application/octet-stream") {
		return detected.String()
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return detected.String()
}

func repoPath(c *gin.Context) string {
	return paths.Clean(c.Param("path"))
}

// hasQuery reports whether the query string names key, with or without a value.
func hasQuery(c *gin.Context, key string) bool {
	_, ok := c.GetQuery(key)
	return ok
}

func repositoryListOptions(c *gin.Context) repository.ListOptions {
	opts := repository.ListOptions{Glob: c.Query("glob")}
	if v, ok := c.GetQuery("hidden"); ok {
		b, err := strconv.ParseBool(v)
		opts.ShowHidden = v == "" || (err == nil && b)
	}
	return opts
}
