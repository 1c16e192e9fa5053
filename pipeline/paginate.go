package pipeline

import (
	"context"
	"log/slog"

	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/metrics"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

// PaginateInput parameterizes one pagination detection pass. Keys and
// SourceURLs are paired by position.
type PaginateInput struct {
	Keys        []string
	SourceURLs  []string
	Model       string
	Indication  string
	Credentials llm.Credentials
}

// Paginator detects the page URL sequence of each stored page.
type Paginator struct {
	extractor Extractor
}

// NewPaginator creates a Paginator.
func NewPaginator(extractor Extractor) *Paginator {
	return &Paginator{extractor: extractor}
}

// Run detects pagination for each key/URL pair and persists it under
// pagination_data. Pairs beyond the shorter list are ignored.
func (p *Paginator) Run(ctx context.Context, st store.Store, in PaginateInput) (*models.PaginationSummary, error) {
	schema := PaginationSchema()
	n := min(len(in.Keys), len(in.SourceURLs))

	summary := &models.PaginationSummary{Results: []models.PaginationResult{}}
	for i := range n {
		key, pageURL := in.Keys[i], in.SourceURLs[i]

		content, err := st.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		if content == "" {
			slog.Info("no stored content, skipping pagination", "key", key)
			continue
		}

		ext, err := p.extractor.Extract(ctx, llm.ExtractRequest{
			Content:      content,
			Schema:       schema,
			Model:        in.Model,
			SystemPrompt: BuildPaginationPrompt(in.Indication, pageURL),
		}, in.Credentials)
		if err != nil {
			metrics.ObserveExtractionFailure("pagination", in.Model)
			return nil, err
		}

		pages := coerceOutput(ext.Output)
		if err := st.UpdateFields(ctx, key, store.Patch{PaginationResult: pages}); err != nil {
			return nil, err
		}

		summary.Totals.Add(ext.Usage.InputTokens, ext.Usage.OutputTokens, ext.CostUSD)
		summary.Results = append(summary.Results, models.PaginationResult{
			Key:              key,
			SourceURL:        pageURL,
			PaginationResult: pages,
		})
		metrics.ObserveExtraction("pagination", in.Model, ext.Usage.InputTokens, ext.Usage.OutputTokens, ext.CostUSD)
		slog.Info("pagination saved", "key", key)
	}
	return summary, nil
}
