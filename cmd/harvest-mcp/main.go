package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/harvest/models"
)

// apiError mirrors the Harvest API error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// runResponse mirrors the Harvest API run response.
type runResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		Model  string   `json:"model"`
		URLs   []string `json:"urls"`
		Keys   []string `json:"keys"`
		Scrape *struct {
			Results []struct {
				Key              string          `json:"unique_name"`
				StructuredFields json.RawMessage `json:"structured_fields"`
			} `json:"results"`
		} `json:"scrape"`
		Pagination *struct {
			Results []struct {
				Key              string          `json:"unique_name"`
				SourceURL        string          `json:"url"`
				PaginationResult json.RawMessage `json:"pagination_result"`
			} `json:"results"`
		} `json:"pagination"`
		Totals models.Totals `json:"totals"`
	} `json:"result"`
	Error *apiError `json:"error"`
}

// recordResponse mirrors the Harvest API record response.
type recordResponse struct {
	Success bool `json:"success"`
	Record  *struct {
		Key              string          `json:"unique_name"`
		SourceURL        string          `json:"url"`
		RawContent       string          `json:"raw_data"`
		StructuredFields json.RawMessage `json:"formatted_data"`
		PaginationResult json.RawMessage `json:"pagination_data"`
	} `json:"record"`
	Error *apiError `json:"error"`
}

// modelsResponse mirrors the Harvest API model catalog response.
type modelsResponse struct {
	Success bool `json:"success"`
	Models  []struct {
		ID            string  `json:"id"`
		Provider      string  `json:"provider"`
		Credential    string  `json:"credential"`
		MaxTokens     int     `json:"max_tokens"`
		InputPerMTok  float64 `json:"input_usd_per_mtok"`
		OutputPerMTok float64 `json:"output_usd_per_mtok"`
		CredentialSet bool    `json:"credential_set"`
	} `json:"models"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeListingsTool := mcp.NewTool("scrape_listings",
		mcp.WithDescription("Fetch listing pages, extract the requested fields from every listing with an LLM, and optionally detect pagination URLs. Results are stored and returned as JSON."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Listing page URLs to process"),
		),
		mcp.WithArray("fields",
			mcp.Description("Field names to extract from each listing, e.g. [\"title\", \"price\"]. Required unless scraping is disabled."),
		),
		mcp.WithString("model",
			mcp.Description("Extraction model id (see list_models). Default: the server's default model."),
		),
		mcp.WithBoolean("scraping",
			mcp.Description("Extract listings (default: true)"),
		),
		mcp.WithBoolean("paginate",
			mcp.Description("Also detect pagination URLs (default: false)"),
		),
		mcp.WithString("pagination_details",
			mcp.Description("Free-text hints for pagination detection, e.g. 'pages use ?page=N'"),
		),
	)
	s.AddTool(scrapeListingsTool, handleScrapeListings(apiURL, apiKey))

	getRecordTool := mcp.NewTool("get_record",
		mcp.WithDescription("Return a stored record by its unique name: the page markdown plus any listing and pagination results."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("The record's unique name, as returned by scrape_listings"),
		),
	)
	s.AddTool(getRecordTool, handleGetRecord(apiURL, apiKey))

	listModelsTool := mcp.NewTool("list_models",
		mcp.WithDescription("List the extraction models the server supports, with token limits, prices and whether their API key is configured."),
	)
	s.AddTool(listModelsTool, handleListModels(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Harvest API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return apiDo(client, req, apiKey)
}

// apiGet sends a GET request to the Harvest API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return apiDo(client, req, apiKey)
}

func apiDo(client *http.Client, req *http.Request, apiKey string) ([]byte, error) {
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(fallback string, e *apiError) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func handleScrapeListings(apiURL, apiKey string) server.ToolHandlerFunc {
	// A run fetches and extracts every URL in sequence.
	client := &http.Client{Timeout: 30 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := map[string]interface{}{
			"urls":   urls,
			"fields": request.GetStringSlice("fields", nil),
		}
		if model := request.GetString("model", ""); model != "" {
			payload["model"] = model
		}
		if args := request.GetArguments(); args["scraping"] != nil {
			payload["scraping"] = request.GetBool("scraping", true)
		}
		if request.GetBool("paginate", false) {
			payload["pagination"] = true
			payload["pagination_details"] = request.GetString("pagination_details", "")
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/runs", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run request failed: %v", err)), nil
		}

		var runResp runResponse
		if err := json.Unmarshal(respBody, &runResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run response: %v", err)), nil
		}
		if !runResp.Success || runResp.Result == nil {
			return mcp.NewToolResultError(errorText("run failed", runResp.Error)), nil
		}

		r := runResp.Result
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Model: %s\nURLs: %d\n\n", r.Model, len(r.URLs)))

		if r.Scrape != nil {
			for _, res := range r.Scrape.Results {
				sb.WriteString(fmt.Sprintf("--- Listings [%s] ---\n%s\n\n", res.Key, prettyJSON(res.StructuredFields)))
			}
		}
		if r.Pagination != nil {
			for _, res := range r.Pagination.Results {
				sb.WriteString(fmt.Sprintf("--- Pagination [%s] %s ---\n%s\n\n", res.Key, res.SourceURL, prettyJSON(res.PaginationResult)))
			}
		}

		sb.WriteString(fmt.Sprintf("---\nTokens: %d in / %d out, cost $%.6f",
			r.Totals.InputTokens, r.Totals.OutputTokens, r.Totals.CostUSD))

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGetRecord(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError("key is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/records/"+key)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("record request failed: %v", err)), nil
		}

		var recResp recordResponse
		if err := json.Unmarshal(respBody, &recResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse record response: %v", err)), nil
		}
		if !recResp.Success || recResp.Record == nil {
			return mcp.NewToolResultError(errorText("record lookup failed", recResp.Error)), nil
		}

		rec := recResp.Record
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Key: %s\nSource: %s\n\n", rec.Key, rec.SourceURL))
		if len(rec.StructuredFields) > 0 {
			sb.WriteString("Listings:\n" + prettyJSON(rec.StructuredFields) + "\n\n")
		}
		if len(rec.PaginationResult) > 0 {
			sb.WriteString("Pagination:\n" + prettyJSON(rec.PaginationResult) + "\n\n")
		}
		sb.WriteString("Content:\n" + rec.RawContent)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListModels(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/models")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("models request failed: %v", err)), nil
		}

		var modelsResp modelsResponse
		if err := json.Unmarshal(respBody, &modelsResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse models response: %v", err)), nil
		}
		if !modelsResp.Success {
			return mcp.NewToolResultError(errorText("listing models failed", modelsResp.Error)), nil
		}

		var sb strings.Builder
		for _, m := range modelsResp.Models {
			status := "key missing"
			if m.CredentialSet {
				status = "ready"
			}
			sb.WriteString(fmt.Sprintf("%s (%s): max %d tokens, $%.2f/$%.2f per MTok in/out, %s [%s]\n",
				m.ID, m.Provider, m.MaxTokens, m.InputPerMTok, m.OutputPerMTok, m.Credential, status))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
