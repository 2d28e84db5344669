package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// ConfigController serves the environment-driven settings a client needs to render forms.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetClientConfig returns registration defaults and the accepted filter values.
func (c *ConfigController) GetClientConfig(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"registration": gin.H{
			"default_country": cfg.DefaultCountry,
			"default_city":    cfg.DefaultCity,
		},
		"feed": gin.H{
			"sorts": []string{services.SortLatest, services.SortLikes},
		},
		"travel": gin.H{
			"statuses":    []string{models.StatusOpen, models.StatusFull, models.StatusClosed},
			"date_layout": "YYYY-MM-DD",
		},
		"token_ttl_hours":       cfg.TokenTTLHours,
		"rate_limit_per_minute": cfg.RateLimitPerMinute,
	})
}
