package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"listings\":[]}"}}],"usage":{"prompt_tokens":12,"completion_tokens":4}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	c := NewOpenAIClient(ts.Client())
	got, err := c.Complete(context.Background(), CompletionRequest{
		APIKey:         "sk-test",
		BaseURL:        ts.URL + "/v1/",
		Model:          "gpt-4o-mini",
		Messages:       ComposeMessages("sys", "", "page"),
		Schema:         Schema{Name: "listings_container", JSON: json.RawMessage(`{"type":"object"}`)},
		StructuredMode: ModeJSONSchema,
		MaxTokens:      intPtr(900),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"listings":[]}`, got.Content)
	assert.Equal(t, 12, got.InputTokens)
	assert.Equal(t, 4, got.OutputTokens)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 900, body["max_tokens"])
	rf := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "listings_container", js["name"])
	assert.Equal(t, true, js["strict"])
}

func TestOpenAIClient_JSONObjectModeOmitsMaxTokens(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"choices":[{"message":{"content":"plain text"}}]}`)) //nolint:errcheck
	}))
	defer ts.Close()

	got, err := NewOpenAIClient(nil).Complete(context.Background(), CompletionRequest{
		BaseURL:        ts.URL,
		Model:          "deepseek-r1-distill-llama-70b",
		StructuredMode: ModeJSONObject,
		Schema:         Schema{Name: "x", JSON: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "plain text", got.Content)
	assert.Zero(t, got.InputTokens)

	_, hasMax := body["max_tokens"]
	assert.False(t, hasMax)
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
}

func TestOpenAIClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{http.StatusForbidden, models.ErrCodeLLMAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{http.StatusInternalServerError, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`)) //nolint:errcheck
			}))
			defer ts.Close()

			_, err := NewOpenAIClient(ts.Client()).Complete(context.Background(), CompletionRequest{BaseURL: ts.URL})
			require.Error(t, err)
			assert.Equal(t, tt.code, models.CodeOf(err))
		})
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`)) //nolint:errcheck
	}))
	defer ts.Close()

	_, err := NewOpenAIClient(ts.Client()).Complete(context.Background(), CompletionRequest{BaseURL: ts.URL})
	assert.Equal(t, models.ErrCodeLLMFailure, models.CodeOf(err))
}
