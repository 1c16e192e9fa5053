package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

func sampleRun() models.RunResponse {
	return models.RunResponse{
		Success: true,
		Result: &models.RunResult{
			Model: "gpt-4o-mini",
			URLs:  []string{"https://example.com/page/1"},
			Keys:  []string{"example_2025_01_01__00_00_00_000000"},
			Scrape: &models.ScrapeSummary{
				Results: []models.ScrapeResult{{
					Key:              "example_2025_01_01__00_00_00_000000",
					StructuredFields: json.RawMessage(`{"listings":[{"title":"A"}]}`),
				}},
			},
			Totals: models.Totals{InputTokens: 100, OutputTokens: 20, CostUSD: 0.0123},
		},
	}
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRunResponse_DecodesServerTotals(t *testing.T) {
	body, err := json.Marshal(sampleRun())
	require.NoError(t, err)

	var got runResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotNil(t, got.Result)
	assert.Equal(t, 100, got.Result.Totals.InputTokens)
	assert.Equal(t, 20, got.Result.Totals.OutputTokens)
	assert.InDelta(t, 0.0123, got.Result.Totals.CostUSD, 1e-12)
	require.NotNil(t, got.Result.Scrape)
	assert.Equal(t, "example_2025_01_01__00_00_00_000000", got.Result.Scrape.Results[0].Key)
}

func TestHandleScrapeListings(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs", r.URL.Path)
		gotKey = r.Header.Get("X-API-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sampleRun())
	}))
	defer srv.Close()

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name: "scrape_listings",
		Arguments: map[string]any{
			"urls":   []any{"https://example.com/page/1"},
			"fields": []any{"title"},
		},
	}}
	res, err := handleScrapeListings(srv.URL, "test-key")(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := toolText(t, res)
	assert.Contains(t, text, "Model: gpt-4o-mini")
	assert.Contains(t, text, `"title": "A"`)
	assert.Contains(t, text, "Tokens: 100 in / 20 out, cost $0.012300")
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, []any{"title"}, gotBody["fields"])
}

func TestHandleScrapeListings_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"LLM_RATE_LIMITED","message":"slow down"}}`))
	}))
	defer srv.Close()

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      "scrape_listings",
		Arguments: map[string]any{"urls": []any{"https://example.com/page/1"}, "fields": []any{"title"}},
	}}
	res, err := handleScrapeListings(srv.URL, "test-key")(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[LLM_RATE_LIMITED] slow down", toolText(t, res))
}
