package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/session"
	"github.com/use-agent/harvest/store"
)

// StoreOpener resolves the content store for a set of credentials.
type StoreOpener interface {
	Open(ctx context.Context, creds map[string]string) (store.Store, error)
}

// GetRecord returns a handler for GET /api/v1/records/:key.
//
// The store is named by the server's DATABASE_URL, or by the credentials
// of the session given in the session query parameter.
func GetRecord(mgr *session.Manager, stores StoreOpener, envCreds map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionCreds map[string]string
		if id := c.Query("session"); id != "" {
			s, err := mgr.Get(id)
			if err != nil {
				respondError(c, err)
				return
			}
			sessionCreds = s.Credentials()
		}

		ctx := c.Request.Context()
		st, err := stores.Open(ctx, llm.ResolveCredentials(envCreds, sessionCreds))
		if err != nil {
			respondError(c, err)
			return
		}

		rec, err := st.Get(ctx, c.Param("key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": rec})
	}
}
