package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arpablo/henni-repo/internal/infrastructure/monitoring"
	"github.com/arpablo/henni-repo/internal/repository"
)

// APIPrefix is the mount point of the repository routes.
const APIPrefix = "/api/repo/v1"

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	repo    *repository.Repository
	metrics *monitoring.Metrics
	logger  *zap.Logger
	uri     string
}

// NewHandlers creates a new handler set. metrics may be nil; uri is the
// public repository address reported by /health.
func NewHandlers(repo *repository.Repository, metrics *monitoring.Metrics, logger *zap.Logger, uri string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		uri:     uri,
	}
}

// Register mounts every route on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group(APIPrefix)
	api.GET("/*path", h.Get)
	api.PUT("/*path", h.Put)
	api.POST("/*path", h.Post)
	api.DELETE("/*path", h.Delete)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "henni-repo",
		"version": Version,
		"api":     APIPrefix,
	})
}

// Health reports whether the repository root is usable
func (h *Handlers) Health(c *gin.Context) {
	root := h.repo.Root()

	status, code := "healthy", http.StatusOK
	if !root.Exists || !root.IsDirectory || !root.CanRead {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	body := gin.H{
		"status": status,
		"repository": gin.H{
			"uri":      h.uri,
			"exists":   root.Exists,
			"readable": root.CanRead,
			"writable": root.CanWrite,
		},
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(code, body)
}
