package llm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/use-agent/harvest/models"
)

// UserPreamble opens every extraction user message.
const UserPreamble = "Extract the following information from the provided text:\nPage content:\n\n"

// maxTokensMargin is subtracted from every output budget handed to a
// provider.
const maxTokensMargin = 100

// ExtractRequest is one structured extraction call.
type ExtractRequest struct {
	Content          string
	Schema           Schema
	Model            string
	SystemPrompt     string
	ExtraInstruction string
	MaxOutputTokens  *int
	UseModelMax      bool
}

// Usage is the token accounting of one extraction.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Extraction is the result of one Extract call.
type Extraction struct {
	Output  string
	Usage   Usage
	CostUSD float64
}

// Caller dispatches extraction requests to the provider serving each model.
type Caller struct {
	providers map[string]Provider
	baseURLs  map[string]string
}

// NewCaller builds a Caller with the OpenAI-compatible and Anthropic
// providers sharing httpClient. baseURLs overrides provider endpoints by
// provider name.
func NewCaller(httpClient *http.Client, baseURLs map[string]string) *Caller {
	return NewCallerWithProviders(map[string]Provider{
		APIOpenAI:    NewOpenAIClient(httpClient),
		APIAnthropic: NewAnthropicClient(httpClient),
	}, baseURLs)
}

// NewCallerWithProviders builds a Caller from explicit providers keyed by
// wire protocol.
func NewCallerWithProviders(providers map[string]Provider, baseURLs map[string]string) *Caller {
	return &Caller{providers: providers, baseURLs: baseURLs}
}

// Extract runs one structured extraction with credentials scoped to this
// call. Provider errors are returned unchanged and never retried.
func (c *Caller) Extract(ctx context.Context, req ExtractRequest, creds Credentials) (*Extraction, error) {
	model, err := Lookup(req.Model)
	if err != nil {
		return nil, err
	}

	apiKey := creds[model.Credential]
	if apiKey == "" {
		return nil, models.NewScrapeError(models.ErrCodeCredentials, model.Credential+" is not set", nil)
	}

	provider, ok := c.providers[model.API]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "no provider for "+model.API, nil)
	}

	maxTokens := ClampMaxTokens(req.MaxOutputTokens, req.UseModelMax, model.MaxTokens)
	if maxTokens == nil && model.API == APIAnthropic {
		maxTokens = ClampMaxTokens(nil, true, model.MaxTokens)
	}

	messages := ComposeMessages(req.SystemPrompt, req.ExtraInstruction, req.Content)

	baseURL := model.BaseURL
	if override := c.baseURLs[model.Provider]; override != "" {
		baseURL = override
	}

	completion, err := provider.Complete(ctx, CompletionRequest{
		APIKey:         apiKey,
		BaseURL:        baseURL,
		Model:          model.Upstream,
		Messages:       messages,
		Schema:         req.Schema,
		StructuredMode: model.StructuredMode,
		MaxTokens:      maxTokens,
	})
	if err != nil {
		return nil, err
	}

	counted := Usage{
		InputTokens:  CountMessages(messages),
		OutputTokens: CountText(completion.Content),
	}

	billed := counted
	if completion.InputTokens > 0 || completion.OutputTokens > 0 {
		billed = Usage{InputTokens: completion.InputTokens, OutputTokens: completion.OutputTokens}
	}

	ext := &Extraction{
		Output:  completion.Content,
		Usage:   counted,
		CostUSD: model.Cost(billed.InputTokens, billed.OutputTokens),
	}

	slog.Info("extraction completed",
		"model", model.ID,
		"input_tokens", ext.Usage.InputTokens,
		"output_tokens", ext.Usage.OutputTokens,
		"cost_usd", ext.CostUSD,
	)

	return ext, nil
}

// ClampMaxTokens derives the output budget sent to a provider. An explicit
// request is capped at the model ceiling; either way the margin is taken
// off. nil means "let the provider decide". The result is never below 1.
func ClampMaxTokens(requested *int, useModelMax bool, modelMax int) *int {
	var n int
	switch {
	case requested != nil:
		n = min(*requested, modelMax) - maxTokensMargin
	case useModelMax:
		n = modelMax - maxTokensMargin
	default:
		return nil
	}
	n = max(n, 1)
	return &n
}

// ComposeMessages builds the system and user turns of an extraction.
func ComposeMessages(systemPrompt, extra, content string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: UserPreamble + " " + extra + " " + content},
	}
}
