package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// Fetch modes.
const (
	ModeBrowser = "browser"
	ModeAuto    = "auto"
)

// Scraper renders pages in a shared headless browser and returns their
// content as markdown. It is safe for concurrent use; each fetch gets its
// own tab.
type Scraper struct {
	browser     *rod.Browser
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	cleaner     *cleaner.Cleaner
	blocker     *blocker
	httpFetcher *httpFetcher
	jsDomains   *domainMemory
	fetches     atomic.Int64
	inFlight    atomic.Int32
}

// NewScraper launches a headless browser.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, cl *cleaner.Cleaner) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Scraper{
		browser:     browser,
		browserCfg:  browserCfg,
		scraperCfg:  scraperCfg,
		cleaner:     cl,
		blocker:     newBlocker(scraperCfg.BlockedResourceTypes, scraperCfg.BlockAds),
		httpFetcher: newHTTPFetcher(browserCfg.DefaultProxy),
		jsDomains:   newDomainMemory(6 * time.Hour),
	}, nil
}

// Stats is a point-in-time view of fetch activity.
type Stats struct {
	Fetches  int64
	InFlight int
}

// Stats returns fetch counters.
func (s *Scraper) Stats() Stats {
	return Stats{
		Fetches:  s.fetches.Load(),
		InFlight: int(s.inFlight.Load()),
	}
}

// Close kills the browser process. Call this on graceful shutdown to
// prevent zombie Chrome processes.
func (s *Scraper) Close() {
	s.jsDomains.Stop()
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
