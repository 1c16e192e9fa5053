package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/session"
)

// Launcher runs a session's URLs through the extraction pipelines.
type Launcher interface {
	Launch(ctx context.Context, s *session.Session, req models.LaunchRequest) (*models.RunResult, error)
}

// ── Session lifecycle ──────────────────────────────────────────────────

// CreateSession returns a handler for POST /api/v1/sessions.
func CreateSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateSessionRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			bindError(c, err)
			return
		}

		s := mgr.Create(req.Credentials, req.WebhookURL)
		if len(req.URLs) > 0 {
			s.AddURLs(strings.Join(req.URLs, " "))
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "session": s.Snapshot()})
	}
}

// GetSession returns a handler for GET /api/v1/sessions/:id.
func GetSession(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		c.JSON(http.StatusOK, gin.H{"success": true, "session": s.Snapshot()})
	})
}

// DeleteSession returns a handler for DELETE /api/v1/sessions/:id.
func DeleteSession(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		mgr.Delete(s.ID)
		c.Status(http.StatusNoContent)
	})
}

// ── URL list ───────────────────────────────────────────────────────────

// AddURLs returns a handler for POST /api/v1/sessions/:id/urls.
func AddURLs(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		var req models.AddURLsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		added := s.AddURLs(req.Text)
		c.JSON(http.StatusOK, gin.H{"success": true, "added": added, "session": s.Snapshot()})
	})
}

// ClearURLs returns a handler for DELETE /api/v1/sessions/:id/urls.
func ClearURLs(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		s.ClearURLs()
		c.JSON(http.StatusOK, gin.H{"success": true, "session": s.Snapshot()})
	})
}

// ── Runs ───────────────────────────────────────────────────────────────

// Launch returns a handler for POST /api/v1/sessions/:id/launch. The run
// is synchronous; the response carries the result.
func Launch(mgr *session.Manager, runner Launcher) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		var req models.LaunchRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			bindError(c, err)
			return
		}

		// A disconnecting client does not abort the run; the session keeps
		// the outcome.
		ctx := context.WithoutCancel(c.Request.Context())
		result, err := runner.Launch(ctx, s, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.RunResponse{Success: true, Result: result})
	})
}

// ClearResults returns a handler for POST /api/v1/sessions/:id/clear.
func ClearResults(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		if err := s.ClearResults(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "session": s.Snapshot()})
	})
}

// ── Export ─────────────────────────────────────────────────────────────

// Export returns a handler for GET /api/v1/sessions/:id/export/:artifact.
//
// The format query parameter selects json (default), csv or xlsx. The
// results artifact is JSON only.
func Export(mgr *session.Manager) gin.HandlerFunc {
	return withSession(mgr, func(c *gin.Context, s *session.Session) {
		result := s.Result()
		if result == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeNoResults, "session has no results; launch it first", nil))
			return
		}

		artifact := c.Param("artifact")
		format := strings.ToLower(c.DefaultQuery("format", export.FormatJSON))

		var table export.Table
		switch artifact {
		case export.ArtifactResults:
			if format != export.FormatJSON {
				respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "results are only exported as json", nil))
				return
			}
			var buf bytes.Buffer
			if err := export.WriteJSON(&buf, export.Entries(result)); err != nil {
				respondError(c, err)
				return
			}
			sendArtifact(c, s.ID, artifact, format, buf.Bytes())
			return
		case export.ArtifactListings:
			if result.Scrape == nil {
				respondError(c, models.NewScrapeError(models.ErrCodeNoResults, "the last run did not extract listings", nil))
				return
			}
			table = export.ListingRows(result.Scrape.Results)
		case export.ArtifactPagination:
			if result.Pagination == nil {
				respondError(c, models.NewScrapeError(models.ErrCodeNoResults, "the last run did not detect pagination", nil))
				return
			}
			table = export.PageRows(result.Pagination.Results)
		default:
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput,
				fmt.Sprintf("unknown artifact %q: use results, listings or pagination", artifact), nil))
			return
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, table, format, artifact); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		sendArtifact(c, s.ID, artifact, format, buf.Bytes())
	})
}

func sendArtifact(c *gin.Context, sessionID, artifact, format string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.%s"`, artifact, sessionID, format))
	c.Data(http.StatusOK, export.ContentType(format), body)
}

// withSession resolves the :id path parameter before calling next.
func withSession(mgr *session.Manager, next func(*gin.Context, *session.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		next(c, s)
	}
}
