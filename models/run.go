package models

import (
	"encoding/json"
	"time"
)

// ScrapeResult is the listing extraction output for one key.
type ScrapeResult struct {
	Key              string          `json:"unique_name"`
	StructuredFields json.RawMessage `json:"structured_fields"`
}

// PaginationResult is the pagination detection output for one key.
type PaginationResult struct {
	Key              string          `json:"unique_name"`
	SourceURL        string          `json:"url"`
	PaginationResult json.RawMessage `json:"pagination_result"`
}

// ScrapeSummary is what the scrape pipeline returns for one launch.
type ScrapeSummary struct {
	Totals  Totals         `json:"totals"`
	Results []ScrapeResult `json:"results"`
}

// PaginationSummary is what the pagination pipeline returns for one launch.
type PaginationSummary struct {
	Totals  Totals             `json:"totals"`
	Results []PaginationResult `json:"results"`
}

// RunResult is the outcome of one launch: fetch, then the enabled
// pipelines.
type RunResult struct {
	Model      string             `json:"model"`
	URLs       []string           `json:"urls"`
	Keys       []string           `json:"keys"`
	Scrape     *ScrapeSummary     `json:"scrape,omitempty"`
	Pagination *PaginationSummary `json:"pagination,omitempty"`

	// Totals is the combined usage of both pipelines.
	Totals Totals `json:"totals"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
