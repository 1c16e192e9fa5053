package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/session"
)

// Run returns a handler for POST /api/v1/runs: a one-shot launch over a
// throwaway session. The MCP server uses it.
func Run(mgr *session.Manager, runner Launcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		s := mgr.Create(req.Credentials, req.WebhookURL)
		defer mgr.Delete(s.ID)
		s.AddURLs(strings.Join(req.URLs, " "))

		ctx := context.WithoutCancel(c.Request.Context())
		result, err := runner.Launch(ctx, s, req.LaunchRequest)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.RunResponse{Success: true, Result: result})
	}
}
