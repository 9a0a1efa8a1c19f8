// Package api registers the HTTP surface described in §6: the hybrid and
// simplified search endpoints, health/readiness probes, and the
// JWT-guarded full-text-search migration trigger.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/delimatsuo/talentsearch/internal/orchestrator"
	"github.com/delimatsuo/talentsearch/internal/store"
	"github.com/delimatsuo/talentsearch/pkg/auth"
	"github.com/delimatsuo/talentsearch/pkg/monitoring"
	"github.com/delimatsuo/talentsearch/pkg/validation"
)

// Handler wires the orchestrator, validator, store migrator, and health
// checker into gin routes.
type Handler struct {
	Orchestrator *orchestrator.Orchestrator
	Store        *store.Store
	Validator    *validation.Validator
	Health       *monitoring.HealthChecker
	Logger       *logrus.Logger
	JWTSecret    []byte
}

// Register mounts every route on router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.handleHealthz)
	router.GET("/readyz", h.handleReadyz)
	router.GET("/health/detailed", h.handleDetailedHealth)

	v1 := router.Group("/v1/search")
	v1.POST("/hybrid", h.handleHybridSearch)
	v1.POST("/candidates", h.handleCandidateSearch)

	admin := router.Group("/admin")
	admin.Use(auth.JWTAuthMiddleware(h.JWTSecret))
	admin.POST("/migrate-fts", h.handleMigrateFTS)
}

// handleHealthz is the liveness probe: the process is up and answering.
func (h *Handler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReadyz is the readiness probe: dependencies the request path needs
// (store) must be reachable, or the caller should stop routing traffic here.
func (h *Handler) handleReadyz(c *gin.Context) {
	snapshot := h.Store.Health(c.Request.Context())
	if !snapshot.Healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	status := "ready"
	if snapshot.Degraded {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// handleDetailedHealth aggregates every check registered on h.Health.
// cmd/talentsearch registers database, store_pool, rerank, trajectory, nlp
// and config; the cache and embedding clients have no check of their own.
func (h *Handler) handleDetailedHealth(c *gin.Context) {
	health := h.Health.CheckHealth()
	code := http.StatusOK
	if health.Status == monitoring.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// handleMigrateFTS runs the store's idempotent schema/index migration.
// Guarded by JWTAuthMiddleware since it takes locks on the candidate table.
func (h *Handler) handleMigrateFTS(c *gin.Context) {
	if err := h.Store.Migrate(c.Request.Context()); err != nil {
		h.Logger.WithError(err).Error("migrate-fts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "migration failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "migrated"})
}
