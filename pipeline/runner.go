package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/metrics"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/session"
	"github.com/use-agent/harvest/store"
	"github.com/use-agent/harvest/webhook"
)

// StoreOpener resolves the content store for a set of credentials.
type StoreOpener interface {
	Open(ctx context.Context, creds map[string]string) (store.Store, error)
}

// Notifier delivers run events to a session's webhook.
type Notifier interface {
	DeliverAsync(url string, event *webhook.Event)
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Content   ContentFetcher
	Extractor Extractor
	Stores    StoreOpener
	Notifier  Notifier

	// EnvCredentials are server-level credentials; sessions override them.
	EnvCredentials map[string]string

	// DefaultModel applies when a launch names no model.
	DefaultModel string
}

// Runner performs a launch: fetch and store every URL, then run the
// enabled pipelines and record the outcome on the session.
type Runner struct {
	fetcher      *Fetcher
	scraper      *Scraper
	paginator    *Paginator
	stores       StoreOpener
	notifier     Notifier
	envCreds     map[string]string
	defaultModel string
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		fetcher:      NewFetcher(cfg.Content),
		scraper:      NewScraper(cfg.Extractor),
		paginator:    NewPaginator(cfg.Extractor),
		stores:       cfg.Stores,
		notifier:     cfg.Notifier,
		envCreds:     cfg.EnvCredentials,
		defaultModel: cfg.DefaultModel,
	}
}

// Validate checks a launch against the session without changing any state.
func (r *Runner) Validate(s *session.Session, req *models.LaunchRequest) error {
	req.Defaults(r.defaultModel)
	req.Fields = normalizeFields(req.Fields)

	if len(s.URLs()) == 0 {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "no URLs to process", nil)
	}
	if req.ScrapingEnabled() && len(req.Fields) == 0 {
		return models.NewScrapeError(models.ErrCodeNoFields, "at least one field is required for extraction", nil)
	}
	if _, err := llm.Lookup(req.Model); err != nil {
		return err
	}
	return nil
}

// Launch runs the session's URLs through the pipeline. On failure the
// session returns to idle with the error recorded; records written before
// the failure stay in the store.
func (r *Runner) Launch(ctx context.Context, s *session.Session, req models.LaunchRequest) (*models.RunResult, error) {
	if err := r.Validate(s, &req); err != nil {
		return nil, err
	}
	if err := s.Begin(); err != nil {
		return nil, err
	}

	result, err := r.run(ctx, s, req)
	if err != nil {
		s.Fail(err)
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		slog.Warn("run failed", "session_id", s.ID, "error", err)
		r.notify(s, webhook.EventRunFailed, models.AsScrapeError(err).ToDetail())
		return nil, err
	}

	s.Complete(result)
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	slog.Info("run completed",
		"session_id", s.ID,
		"urls", len(result.URLs),
		"input_tokens", result.Totals.InputTokens,
		"output_tokens", result.Totals.OutputTokens,
		"cost_usd", result.Totals.CostUSD,
	)
	r.notify(s, webhook.EventRunCompleted, result)
	return result, nil
}

func (r *Runner) run(ctx context.Context, s *session.Session, req models.LaunchRequest) (*models.RunResult, error) {
	creds := llm.ResolveCredentials(r.envCreds, s.Credentials())

	st, err := r.stores.Open(ctx, creds)
	if err != nil {
		return nil, err
	}

	urls := s.URLs()
	result := &models.RunResult{
		Model:     req.Model,
		URLs:      urls,
		StartedAt: time.Now(),
	}

	// ── 1. Fetch and store ──────────────────────────────────────────
	keys, err := r.fetcher.Run(ctx, st, urls, s.Keys())
	if err != nil {
		return nil, err
	}
	result.Keys = keys
	s.RememberKeys(urls, keys)

	// ── 2. Listing extraction ───────────────────────────────────────
	if req.ScrapingEnabled() {
		summary, err := r.scraper.Run(ctx, st, ScrapeInput{
			Keys:            keys,
			Fields:          req.Fields,
			Model:           req.Model,
			Credentials:     creds,
			MaxOutputTokens: req.MaxOutputTokens,
			UseModelMax:     req.UseModelMax,
		})
		if err != nil {
			return nil, err
		}
		result.Scrape = summary
		result.Totals.Merge(summary.Totals)
	}

	// ── 3. Pagination detection ─────────────────────────────────────
	if req.Pagination {
		summary, err := r.paginator.Run(ctx, st, PaginateInput{
			Keys:        keys,
			SourceURLs:  urls,
			Model:       req.Model,
			Indication:  req.PaginationDetails,
			Credentials: creds,
		})
		if err != nil {
			return nil, err
		}
		result.Pagination = summary
		result.Totals.Merge(summary.Totals)
	}

	result.FinishedAt = time.Now()
	return result, nil
}

func (r *Runner) notify(s *session.Session, eventType string, data any) {
	url := s.WebhookURL()
	if url == "" || r.notifier == nil {
		return
	}
	r.notifier.DeliverAsync(url, &webhook.Event{
		Type:      eventType,
		SessionID: s.ID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}
