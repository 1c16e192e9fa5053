package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"

	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
	"github.com/use-agent/harvest/webhook"
)

type memStore struct {
	mu       sync.Mutex
	records  map[string]*models.Record
	readErr  error
	writeErr error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.Record)}
}

func (m *memStore) Read(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	if r, ok := m.records[key]; ok {
		return r.RawContent, nil
	}
	return "", nil
}

func (m *memStore) Write(_ context.Context, key, url, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	r, ok := m.records[key]
	if !ok {
		r = &models.Record{Key: key}
		m.records[key] = r
	}
	r.SourceURL = url
	r.RawContent = content
	return nil
}

func (m *memStore) UpdateFields(_ context.Context, key string, p store.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[key]
	if !ok {
		return nil
	}
	if p.StructuredFields != nil {
		r.StructuredFields = p.StructuredFields
	}
	if p.PaginationResult != nil {
		r.PaginationResult = p.PaginationResult
	}
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[key]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeRecordNotFound, key, nil)
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) put(key, url, content string) {
	m.records[key] = &models.Record{Key: key, SourceURL: url, RawContent: content}
}

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) string {
	f.calls = append(f.calls, url)
	return f.pages[url]
}

type fakeExtractor struct {
	outputs []string
	usage   llm.Usage
	cost    float64
	err     error
	got     []llm.ExtractRequest
	creds   []llm.Credentials
}

func (f *fakeExtractor) Extract(_ context.Context, req llm.ExtractRequest, creds llm.Credentials) (*llm.Extraction, error) {
	f.got = append(f.got, req)
	f.creds = append(f.creds, creds)
	if f.err != nil {
		return nil, f.err
	}
	out := `{}`
	if i := len(f.got) - 1; i < len(f.outputs) {
		out = f.outputs[i]
	}
	return &llm.Extraction{Output: out, Usage: f.usage, CostUSD: f.cost}, nil
}

type fakeOpener struct {
	st  store.Store
	err error
	got []map[string]string
}

func (f *fakeOpener) Open(_ context.Context, creds map[string]string) (store.Store, error) {
	f.got = append(f.got, creds)
	if f.err != nil {
		return nil, f.err
	}
	return f.st, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*webhook.Event
}

func (f *fakeNotifier) DeliverAsync(_ string, ev *webhook.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

var errStoreDown = errors.New("connection refused")

func decode(t interface{ Fatalf(string, ...any) }, raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func llmUsage(in, out int) llm.Usage {
	return llm.Usage{InputTokens: in, OutputTokens: out}
}

// roundTotals trims float noise from summed costs.
func roundTotals(t models.Totals) models.Totals {
	t.CostUSD = math.Round(t.CostUSD*1e9) / 1e9
	return t
}
