package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/harvest/metrics"
)

// Fetch returns the page at targetURL as markdown. It never fails: any
// navigation, script, timeout or conversion error is logged and yields "".
func (s *Scraper) Fetch(ctx context.Context, targetURL string) string {
	s.fetches.Add(1)
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	start := time.Now()
	content, mode, err := s.fetch(ctx, targetURL)
	metrics.FetchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("fetch failed", "url", targetURL, "mode", mode, "error", err)
		return ""
	}
	return content
}

func (s *Scraper) fetch(ctx context.Context, targetURL string) (string, string, error) {
	if s.scraperCfg.FetchMode == ModeAuto {
		if content, ok := s.fetchPlain(ctx, targetURL); ok {
			return content, "http", nil
		}
	}

	rawHTML, err := s.renderHTML(ctx, targetURL)
	if err != nil {
		return "", ModeBrowser, err
	}
	content, err := s.cleaner.Markdown(rawHTML, targetURL, s.scraperCfg.ExtractMode)
	return content, ModeBrowser, err
}

// fetchPlain tries a plain HTTP GET with a Chrome TLS fingerprint. It
// reports false when the page should be rendered instead: the request
// failed, the body looks like a JS shell, or the host needed the browser
// recently.
func (s *Scraper) fetchPlain(ctx context.Context, targetURL string) (string, bool) {
	host := hostname(targetURL)
	if s.jsDomains.Has(host) {
		slog.Debug("host needs browser, skipping http attempt", "host", host)
		return "", false
	}

	httpCtx, cancel := context.WithTimeout(ctx, s.scraperCfg.HTTPTimeout)
	defer cancel()

	body, err := s.httpFetcher.fetch(httpCtx, targetURL)
	if err != nil {
		slog.Debug("http attempt failed, falling back to browser", "url", targetURL, "error", err)
		return "", false
	}
	if needsBrowser(body) {
		s.jsDomains.Add(host)
		slog.Debug("page needs JS rendering, falling back to browser", "url", targetURL)
		return "", false
	}

	content, err := s.cleaner.Markdown(string(body), targetURL, s.scraperCfg.ExtractMode)
	if err != nil || content == "" {
		return "", false
	}
	return content, true
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
