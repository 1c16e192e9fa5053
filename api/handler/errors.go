package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
)

// respondError writes the error envelope with the status mapped from the
// error's code. Unknown errors become INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	scrapeErr := models.AsScrapeError(err)
	status := mapErrorToStatus(scrapeErr)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"path", c.FullPath(),
			"code", scrapeErr.Code,
			"error", err,
		)
	}
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

// bindError reports a request body that failed to decode or validate.
func bindError(c *gin.Context, err error) {
	respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request: "+err.Error(), err))
}

// mapErrorToStatus translates a ScrapeError code to an HTTP status code.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeNoFields, models.ErrCodeCredentials,
		models.ErrCodeStoreNotConfigured:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeSessionNotFound, models.ErrCodeRecordNotFound, models.ErrCodeNoResults:
		return http.StatusNotFound // 404
	case models.ErrCodeBusy:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeNavigation, models.ErrCodeLLMFailure, models.ErrCodeLLMAuthFailure:
		return http.StatusBadGateway // 502
	case models.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

// bindOptionalJSON decodes the body into obj when one is present, so
// endpoints whose fields are all optional accept an empty POST.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
