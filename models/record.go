package models

import (
	"encoding/json"
	"time"
)

// Record is the persisted state of one fetch event in scraped_data.
type Record struct {
	// Key is the unique_name assigned at first fetch. It is the only
	// lookup handle for the record.
	Key string `json:"unique_name"`

	// SourceURL is the page the content was fetched from.
	SourceURL string `json:"url"`

	// RawContent is the fetched page as markdown. Empty means the page
	// has not been fetched (or the fetch yielded nothing).
	RawContent string `json:"raw_data"`

	// StructuredFields is the listing extraction output, if any.
	StructuredFields json.RawMessage `json:"formatted_data,omitempty"`

	// PaginationResult is the pagination detection output, if any.
	PaginationResult json.RawMessage `json:"pagination_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Totals accumulates token usage and cost over one pipeline invocation.
type Totals struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"total_cost"`
}

// Add folds the usage of one extraction into t.
func (t *Totals) Add(input, output int, cost float64) {
	t.InputTokens += input
	t.OutputTokens += output
	t.CostUSD += cost
}

// Merge folds another accumulator into t.
func (t *Totals) Merge(o Totals) {
	t.Add(o.InputTokens, o.OutputTokens, o.CostUSD)
}
