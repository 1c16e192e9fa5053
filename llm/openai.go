package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/harvest/models"
)

// OpenAIClient speaks the OpenAI chat completions protocol. OpenAI, Gemini
// and Groq all expose it, so one client serves the three of them.
type OpenAIClient struct {
	httpClient *http.Client
}

// NewOpenAIClient creates a client using httpClient.
// Pass nil to use a default client.
func NewOpenAIClient(httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIClient{httpClient: httpClient}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chatErrorResponse captures an API error from the provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request asking for schema-shaped JSON.
// The reply text is returned as is; deciding whether it is valid JSON is
// left to the caller.
func (c *OpenAIClient) Complete(ctx context.Context, creq CompletionRequest) (*Completion, error) {
	reqBody := chatRequest{
		Model:          creq.Model,
		Messages:       creq.Messages,
		Temperature:    0,
		MaxTokens:      creq.MaxTokens,
		ResponseFormat: buildResponseFormat(creq),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(creq.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creq.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	return &Completion{
		Content:      chatResp.Choices[0].Message.Content,
		InputTokens:  chatResp.Usage.PromptTokens,
		OutputTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

func buildResponseFormat(creq CompletionRequest) *responseFormat {
	if creq.StructuredMode == ModeJSONObject || len(creq.Schema.JSON) == 0 {
		return &responseFormat{Type: ModeJSONObject}
	}
	return &responseFormat{
		Type: ModeJSONSchema,
		JSONSchema: &jsonSchema{
			Name:   creq.Schema.Name,
			Schema: creq.Schema.JSON,
			Strict: true,
		},
	}
}

// classifyLLMError maps HTTP status codes to appropriate error codes.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
