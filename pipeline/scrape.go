package pipeline

import (
	"context"
	"log/slog"

	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/metrics"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

// ScrapeInput parameterizes one listing extraction pass.
type ScrapeInput struct {
	Keys            []string
	Fields          []string
	Model           string
	Credentials     llm.Credentials
	MaxOutputTokens *int
	UseModelMax     bool
}

// Scraper extracts user-defined listing fields from stored content.
type Scraper struct {
	extractor Extractor
}

// NewScraper creates a Scraper.
func NewScraper(extractor Extractor) *Scraper {
	return &Scraper{extractor: extractor}
}

// Run extracts listings for each key in order and persists them under
// formatted_data. Keys without stored content are skipped. Totals cover
// this call only.
func (s *Scraper) Run(ctx context.Context, st store.Store, in ScrapeInput) (*models.ScrapeSummary, error) {
	fields := normalizeFields(in.Fields)
	if len(fields) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoFields, "at least one field is required for extraction", nil)
	}

	schema := ListingSchema(fields)
	systemPrompt := ListingSystemPrompt(fields)

	summary := &models.ScrapeSummary{Results: []models.ScrapeResult{}}
	for _, key := range in.Keys {
		content, err := st.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		if content == "" {
			slog.Info("no stored content, skipping extraction", "key", key)
			continue
		}

		ext, err := s.extractor.Extract(ctx, llm.ExtractRequest{
			Content:         content,
			Schema:          schema,
			Model:           in.Model,
			SystemPrompt:    systemPrompt,
			MaxOutputTokens: in.MaxOutputTokens,
			UseModelMax:     in.UseModelMax,
		}, in.Credentials)
		if err != nil {
			metrics.ObserveExtractionFailure("scrape", in.Model)
			return nil, err
		}

		structured := coerceOutput(ext.Output)
		if err := st.UpdateFields(ctx, key, store.Patch{StructuredFields: structured}); err != nil {
			return nil, err
		}

		summary.Totals.Add(ext.Usage.InputTokens, ext.Usage.OutputTokens, ext.CostUSD)
		summary.Results = append(summary.Results, models.ScrapeResult{Key: key, StructuredFields: structured})
		metrics.ObserveExtraction("scrape", in.Model, ext.Usage.InputTokens, ext.Usage.OutputTokens, ext.CostUSD)
		slog.Info("listings saved", "key", key)
	}
	return summary, nil
}
