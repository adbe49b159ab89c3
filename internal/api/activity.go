package api

import (
	"fmt"
	"net/http"

	"speechvault/backend/internal/models"
	"speechvault/backend/internal/service"
	"speechvault/backend/pkg/cache"
	"speechvault/backend/pkg/config"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ActivityController exposes the activity history and statistics
// endpoints
type ActivityController struct {
	store  *service.RecordStore
	cache  *cache.Cache
	logger *logger.Logger
}

// NewActivityController creates a new activity controller
func NewActivityController(store *service.RecordStore, responseCache *cache.Cache, logger *logger.Logger) *ActivityController {
	return &ActivityController{
		store:  store,
		cache:  responseCache,
		logger: logger,
	}
}

// RegisterRoutes registers the activity routes on an authenticated group
func (ac *ActivityController) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/history", ac.GetHistory)
	protected.GET("/stats", ac.GetStats)
}

// GetHistory returns the caller's activity log, most recent first.
// Responses are cached briefly; the log is append-only so a slightly
// stale page is harmless.
func (ac *ActivityController) GetHistory(c *gin.Context) {
	uid := userID(c)
	cfg := config.Get()

	cacheKey := fmt.Sprintf("history:%s", uid)
	if cfg.Cache.Enabled && ac.cache != nil {
		if cached, found := ac.cache.Get(cacheKey); found {
			c.JSON(http.StatusOK, gin.H{"history": cached, "cached": true})
			return
		}
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	entries, err := ac.store.GetUserHistory(ctx, uid, cfg.Features.HistoryLimit)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	if cfg.Cache.Enabled && ac.cache != nil {
		ac.cache.Set(cacheKey, entries)
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// GetStats returns the caller's record counts, recomputed on every call,
// plus the cumulative usage totals when enabled
func (ac *ActivityController) GetStats(c *gin.Context) {
	uid := userID(c)
	cfg := config.Get()

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	stats, err := ac.store.GetUserStats(ctx, uid)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	response := gin.H{"stats": stats}

	if cfg.Features.EnableUsageTotals {
		totals, err := ac.store.GetUsageTotals(ctx, uid)
		if err != nil {
			// Usage totals are best-effort bookkeeping; counts still stand
			ac.logger.Warn("failed to load usage totals", "user_id", uid, "error", err.Error())
			totals = &models.UsageTotals{UserID: uid}
		}
		response["usage"] = totals
	}

	c.JSON(http.StatusOK, response)
}
