package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/metrics"
	"github.com/use-agent/harvest/store"
)

// ContentFetcher renders a page and returns its content, or "" on any
// failure.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Fetcher is the fetch-and-store step: it makes sure every URL has a
// record and fetches only those without stored content.
type Fetcher struct {
	content ContentFetcher
	now     func() time.Time
}

// NewFetcher creates a Fetcher backed by content.
func NewFetcher(content ContentFetcher) *Fetcher {
	return &Fetcher{content: content, now: time.Now}
}

// Run returns one key per URL, in order. Keys from known are reused so
// content stored by an earlier run is not fetched again. URLs are fetched
// one at a time. Store errors abort the run.
func (f *Fetcher) Run(ctx context.Context, st store.Store, urls []string, known map[string]string) ([]string, error) {
	assigned := make(map[string]string, len(urls))
	for u, k := range known {
		assigned[u] = k
	}
	issued := make(map[string]struct{}, len(urls))

	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key, ok := assigned[u]
		if !ok {
			key = f.freshKey(u, issued)
			assigned[u] = key
		}
		keys = append(keys, key)

		content, err := st.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		if content != "" {
			slog.Info("using stored content", "url", u, "key", key)
			metrics.FetchesTotal.WithLabelValues("hit").Inc()
			continue
		}

		content = f.content.Fetch(ctx, u)
		if err := st.Write(ctx, key, u, content); err != nil {
			return nil, err
		}

		result := "fetched"
		if content == "" {
			result = "empty"
		}
		metrics.FetchesTotal.WithLabelValues(result).Inc()
		slog.Info("page stored", "url", u, "key", key, "chars", len(content))
	}
	return keys, nil
}

// freshKey generates a key not yet issued in this run. Keys carry
// microseconds, so a clash needs two same-host URLs in one microsecond.
func (f *Fetcher) freshKey(u string, issued map[string]struct{}) string {
	t := f.now()
	key := GenerateKey(u, t)
	for {
		if _, dup := issued[key]; !dup {
			break
		}
		t = t.Add(time.Microsecond)
		key = GenerateKey(u, t)
	}
	issued[key] = struct{}{}
	return key
}
