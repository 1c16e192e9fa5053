package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// maxInFlight is the number of concurrent fetches above which the service
// reports itself degraded.
const maxInFlight = 8

// StatsSource reports fetch activity.
type StatsSource interface {
	Stats() scraper.Stats
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// Health returns a handler for GET /api/v1/health.
func Health(sc StatsSource, sessions SessionCounter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if stats.InFlight > maxInFlight {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Sessions: sessions.Len(),
			Fetches:  stats.Fetches,
			Version:  Version,
		})
	}
}
