package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/models"
)

// renderHTML loads targetURL in a fresh tab and returns the rendered DOM.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Deadline          – page-load timeout over the whole render
//  2. Open tab          – a new target, closed on return
//  3. Stealth injection – mask navigator.webdriver etc. (before navigation)
//  4. Referer header    – look like a click from a search result
//  5. Hijack mount      – block heavy resources and ad domains (before navigation)
//  6. Navigate + settle – wait for the DOM to stop changing
//  7. Scroll            – trigger lazy-loaded listings
//  8. Extract           – page.HTML()
func (s *Scraper) renderHTML(ctx context.Context, targetURL string) (string, error) {
	// ── 1. Deadline ───────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.scraperCfg.PageLoadTimeout)
	defer cancel()

	// ── 2. Open tab ───────────────────────────────────────────────────
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Debug("page close failed", "error", closeErr)
		}
	}()

	// ── 3. Stealth injection ──────────────────────────────────────────
	if s.scraperCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 4. Referer header ─────────────────────────────────────────────
	if u, parseErr := url.Parse(targetURL); parseErr == nil && u.Hostname() != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
			}),
		}.Call(page)
	}

	// ── 5. Hijack mount ───────────────────────────────────────────────
	if router := s.blocker.mount(page); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Navigate + settle ──────────────────────────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(targetURL); err != nil {
		return "", categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	// ── 7. Scroll ─────────────────────────────────────────────────────
	if err := scrollPage(p, s.scraperCfg.Scrolls, s.scraperCfg.ScriptTimeout); err != nil {
		if ctx.Err() != nil {
			return "", categorizeError(ctx.Err(), "page load timed out while scrolling")
		}
		slog.Debug("scrolling stopped early", "url", targetURL, "error", err)
	}

	// ── 8. Extract ────────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return rawHTML, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

