package llm

import (
	"sort"

	"github.com/use-agent/harvest/models"
)

// Wire protocols spoken by providers.
const (
	APIOpenAI    = "openai"
	APIAnthropic = "anthropic"
)

// Structured output modes for OpenAI-compatible providers.
const (
	ModeJSONSchema = "json_schema"
	ModeJSONObject = "json_object"
)

// Model describes one selectable extraction model.
type Model struct {
	// ID is the name users select, e.g. "gemini/gemini-1.5-flash".
	ID string

	// Provider names the vendor; it keys base URL overrides.
	Provider string

	// API is the wire protocol used to reach the provider.
	API string

	// Upstream is the model name sent to the provider.
	Upstream string

	// BaseURL is the provider endpoint root.
	BaseURL string

	// Credential is the name of the API key variable for this model.
	Credential string

	// MaxTokens is the model's token ceiling; requested output budgets
	// are clamped against it.
	MaxTokens int

	// InputPerMTok and OutputPerMTok are USD per million tokens.
	InputPerMTok  float64
	OutputPerMTok float64

	// StructuredMode is how an OpenAI-compatible provider is asked for
	// JSON output.
	StructuredMode string
}

// Cost returns the USD cost of the given usage.
func (m Model) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*m.InputPerMTok + float64(outputTokens)/1e6*m.OutputPerMTok
}

// Models is the catalog of supported extraction models.
var Models = map[string]Model{
	"gpt-4o-mini": {
		ID:             "gpt-4o-mini",
		Provider:       "openai",
		API:            APIOpenAI,
		Upstream:       "gpt-4o-mini",
		BaseURL:        "https://api.openai.com/v1",
		Credential:     "OPENAI_API_KEY",
		MaxTokens:      16384,
		InputPerMTok:   0.15,
		OutputPerMTok:  0.60,
		StructuredMode: ModeJSONSchema,
	},
	"gemini/gemini-1.5-flash": {
		ID:             "gemini/gemini-1.5-flash",
		Provider:       "gemini",
		API:            APIOpenAI,
		Upstream:       "gemini-1.5-flash",
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai",
		Credential:     "GEMINI_API_KEY",
		MaxTokens:      8192,
		InputPerMTok:   0.075,
		OutputPerMTok:  0.30,
		StructuredMode: ModeJSONSchema,
	},
	"groq/deepseek-r1-distill-llama-70b": {
		ID:             "groq/deepseek-r1-distill-llama-70b",
		Provider:       "groq",
		API:            APIOpenAI,
		Upstream:       "deepseek-r1-distill-llama-70b",
		BaseURL:        "https://api.groq.com/openai/v1",
		Credential:     "GROQ_API_KEY",
		MaxTokens:      8192,
		InputPerMTok:   0.75,
		OutputPerMTok:  0.99,
		StructuredMode: ModeJSONObject,
	},
	"claude-3-5-haiku-latest": {
		ID:            "claude-3-5-haiku-latest",
		Provider:      "anthropic",
		API:           APIAnthropic,
		Upstream:      "claude-3-5-haiku-latest",
		Credential:    "ANTHROPIC_API_KEY",
		MaxTokens:     8192,
		InputPerMTok:  0.80,
		OutputPerMTok: 4.00,
	},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Model, error) {
	m, ok := Models[id]
	if !ok {
		return Model{}, models.NewScrapeError(models.ErrCodeInvalidInput, "unknown model: "+id, nil)
	}
	return m, nil
}

// ModelIDs returns the catalog ids in sorted order.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
