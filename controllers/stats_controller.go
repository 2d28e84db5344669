package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// StatsController provides community statistics.
type StatsController struct {
	stats *services.StatsService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats *services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

// GetStats returns aggregate counts.
func (s *StatsController) GetStats(ctx *gin.Context) {
	statsCacheKey := utils.VersionedKey(ctx.Request.Context(), utils.CachePrefixStats, "summary")
	var cached models.Stats
	if utils.CacheGetJSON(ctx.Request.Context(), statsCacheKey, &cached) {
		utils.Success(ctx, cached)
		return
	}
	st, err := s.stats.Get(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(ctx.Request.Context(), statsCacheKey, st, 0)
	utils.Success(ctx, st)
}
