package handlers

import (
	"log"
	"net/http"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// DashboardCache is the admin surface of the dashboard cache.
type DashboardCache interface {
	ClearDashboards() error
	WarmGlobalDashboard() bool
	CacheStats() map[string]interface{}
}

type CacheHandler struct {
	dashboards DashboardCache
	scheduler  *cache.JobScheduler
}

// NewCacheHandler takes an optional scheduler whose stats are reported
// alongside the cache.
func NewCacheHandler(dashboards DashboardCache, scheduler *cache.JobScheduler) *CacheHandler {
	return &CacheHandler{dashboards: dashboards, scheduler: scheduler}
}

// GetCacheStats returns cache, worker pool and scheduler statistics
// GET /api/cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := gin.H{}
	for k, v := range h.dashboards.CacheStats() {
		stats[k] = v
	}
	if h.scheduler != nil {
		stats["scheduler"] = h.scheduler.GetStats()
	}
	c.JSON(http.StatusOK, stats)
}

// WarmCache queues a rebuild of the global dashboard
// POST /api/cache/warmup
func (h *CacheHandler) WarmCache(c *gin.Context) {
	if !h.dashboards.WarmGlobalDashboard() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Cache warming not available"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Cache warming triggered"})
}

// ClearCache drops every cached dashboard
// DELETE /api/cache
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if err := h.dashboards.ClearDashboards(); err != nil {
		log.Printf("❌ Failed to clear dashboard cache: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to clear cache"})
		return
	}

	if identity, ok := middleware.CurrentIdentity(c); ok {
		log.Printf("🧹 Dashboard cache cleared by admin %s", identity.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared successfully"})
}
