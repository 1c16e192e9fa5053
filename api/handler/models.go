package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/models"
)

// ListModels returns a handler for GET /api/v1/models.
//
// CredentialSet reports whether the server environment carries the
// model's key; sessions may still supply their own.
func ListModels(envCreds map[string]string) gin.HandlerFunc {
	creds := llm.Credentials(envCreds)
	return func(c *gin.Context) {
		ids := llm.ModelIDs()
		out := make([]models.ModelInfo, 0, len(ids))
		for _, id := range ids {
			m := llm.Models[id]
			out = append(out, models.ModelInfo{
				ID:            m.ID,
				Provider:      m.Provider,
				Credential:    m.Credential,
				MaxTokens:     m.MaxTokens,
				InputPerMTok:  m.InputPerMTok,
				OutputPerMTok: m.OutputPerMTok,
				CredentialSet: creds.Has(m.Credential),
			})
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "models": out})
	}
}
