package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/use-agent/harvest/models"
)

// AnthropicClient calls the Messages API through the official SDK. A new
// SDK client is built per call because keys are call-scoped.
type AnthropicClient struct {
	httpClient *http.Client
}

// NewAnthropicClient creates a client using httpClient.
// Pass nil to use a default client.
func NewAnthropicClient(httpClient *http.Client) *AnthropicClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AnthropicClient{httpClient: httpClient}
}

// Complete sends one Messages request. The Messages API has no JSON
// response mode, so the schema is appended to the system prompt.
func (a *AnthropicClient) Complete(ctx context.Context, creq CompletionRequest) (*Completion, error) {
	if creq.MaxTokens == nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "anthropic requires max tokens", nil)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(creq.APIKey),
		option.WithHTTPClient(a.httpClient),
		option.WithMaxRetries(0),
	}
	if creq.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(creq.BaseURL))
	}
	client := sdk.NewClient(opts...)

	var system []string
	var msgs []sdk.MessageParam
	for _, m := range creq.Messages {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			msgs = append(msgs, sdk.NewAssistantMessage(block))
		default:
			msgs = append(msgs, sdk.NewUserMessage(block))
		}
	}
	if len(creq.Schema.JSON) > 0 {
		system = append(system, "Respond with a single JSON object, without markdown fences, valid against this JSON Schema:\n"+string(creq.Schema.JSON))
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(creq.Model),
		MaxTokens: int64(*creq.MaxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}

	return &Completion{
		Content:      sb.String(),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func classifyAnthropicError(err error) *models.ScrapeError {
	wrapped := eris.Wrap(err, "anthropic: create message")

	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", wrapped)
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, "anthropic rejected the API key", wrapped)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, "anthropic rate limit exceeded", wrapped)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, "anthropic API error", wrapped)
	}
}
