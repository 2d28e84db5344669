package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// PageViewRecorder counts successful content reads per route template.
func PageViewRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		// FullPath keeps /api/v1/posts/:id as one series instead of one per post
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/metrics" || strings.Contains(route, "/stats") {
			return
		}
		utils.PageViews.WithLabelValues(route).Inc()
	}
}
