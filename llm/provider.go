package llm

import (
	"context"
	"encoding/json"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is the structured-output contract handed to a provider.
type Schema struct {
	// Name labels the schema in json_schema requests.
	Name string

	// JSON is a JSON Schema document describing the expected output.
	JSON json.RawMessage
}

// CompletionRequest is a provider-agnostic structured completion call.
type CompletionRequest struct {
	APIKey         string
	BaseURL        string
	Model          string
	Messages       []Message
	Schema         Schema
	StructuredMode string
	MaxTokens      *int
}

// Completion is a provider reply. Token counts are zero when the provider
// did not report usage.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Provider performs a single completion. Implementations must not retry.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
