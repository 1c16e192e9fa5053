package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

type fakeProvider struct {
	reply *Completion
	err   error
	got   []CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func intPtr(n int) *int { return &n }

func TestClampMaxTokens(t *testing.T) {
	tests := []struct {
		name      string
		requested *int
		useMax    bool
		modelMax  int
		want      *int
	}{
		{"unset", nil, false, 16384, nil},
		{"model max", nil, true, 16384, intPtr(16284)},
		{"below ceiling", intPtr(1000), false, 16384, intPtr(900)},
		{"above ceiling", intPtr(100000), false, 16384, intPtr(16284)},
		{"explicit wins over model max", intPtr(500), true, 8192, intPtr(400)},
		{"tiny request floors at one", intPtr(50), false, 8192, intPtr(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampMaxTokens(tt.requested, tt.useMax, tt.modelMax))
		})
	}
}

func TestComposeMessages(t *testing.T) {
	msgs := ComposeMessages("SYS", "extra", "content body")
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Role: "system", Content: "SYS"}, msgs[0])
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, UserPreamble+" extra content body", msgs[1].Content)
}

func TestCountMessages(t *testing.T) {
	assert.Equal(t, 0, CountMessages(nil))

	msgs := []Message{{Role: "user", Content: "abcdef"}}
	// 3 priming + 3 per message + role + content
	assert.Equal(t, 3+3+CountText("user")+CountText("abcdef"), CountMessages(msgs))
}

func TestCaller_Extract(t *testing.T) {
	fp := &fakeProvider{reply: &Completion{Content: `{"listings":[]}`, InputTokens: 1000, OutputTokens: 500}}
	c := NewCallerWithProviders(map[string]Provider{APIOpenAI: fp}, map[string]string{"openai": "http://local"})

	ext, err := c.Extract(context.Background(), ExtractRequest{
		Content:         "page",
		Schema:          Schema{Name: "listings_container", JSON: []byte(`{}`)},
		Model:           "gpt-4o-mini",
		SystemPrompt:    "SYS",
		MaxOutputTokens: intPtr(1_000_000),
	}, Credentials{"OPENAI_API_KEY": "sk-test"})
	require.NoError(t, err)

	require.Len(t, fp.got, 1)
	got := fp.got[0]
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "http://local", got.BaseURL)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, ModeJSONSchema, got.StructuredMode)
	assert.Equal(t, intPtr(16284), got.MaxTokens)

	assert.Equal(t, `{"listings":[]}`, ext.Output)
	assert.Equal(t, CountMessages(got.Messages), ext.Usage.InputTokens)
	assert.Equal(t, CountText(`{"listings":[]}`), ext.Usage.OutputTokens)
	// billed on provider-reported usage
	assert.InDelta(t, 1000/1e6*0.15+500/1e6*0.60, ext.CostUSD, 1e-12)
}

func TestCaller_Extract_CostFromCountedTokens(t *testing.T) {
	fp := &fakeProvider{reply: &Completion{Content: "not json"}}
	c := NewCallerWithProviders(map[string]Provider{APIOpenAI: fp}, nil)

	ext, err := c.Extract(context.Background(), ExtractRequest{
		Content: "page",
		Model:   "groq/deepseek-r1-distill-llama-70b",
	}, Credentials{"GROQ_API_KEY": "gsk"})
	require.NoError(t, err)

	m := Models["groq/deepseek-r1-distill-llama-70b"]
	assert.Equal(t, "https://api.groq.com/openai/v1", fp.got[0].BaseURL)
	assert.Equal(t, "deepseek-r1-distill-llama-70b", fp.got[0].Model)
	assert.Nil(t, fp.got[0].MaxTokens)
	assert.InDelta(t, m.Cost(ext.Usage.InputTokens, ext.Usage.OutputTokens), ext.CostUSD, 1e-12)
}

func TestCaller_Extract_AnthropicDefaultsMaxTokens(t *testing.T) {
	fp := &fakeProvider{reply: &Completion{Content: "{}"}}
	c := NewCallerWithProviders(map[string]Provider{APIAnthropic: fp}, nil)

	_, err := c.Extract(context.Background(), ExtractRequest{Model: "claude-3-5-haiku-latest"},
		Credentials{"ANTHROPIC_API_KEY": "ak"})
	require.NoError(t, err)
	assert.Equal(t, intPtr(8092), fp.got[0].MaxTokens)
}

func TestCaller_Extract_Errors(t *testing.T) {
	provErr := models.NewScrapeError(models.ErrCodeLLMAuthFailure, "bad key", nil)
	c := NewCallerWithProviders(map[string]Provider{APIOpenAI: &fakeProvider{err: provErr}}, nil)

	_, err := c.Extract(context.Background(), ExtractRequest{Model: "nope"}, nil)
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))

	_, err = c.Extract(context.Background(), ExtractRequest{Model: "gpt-4o-mini"}, Credentials{})
	assert.Equal(t, models.ErrCodeCredentials, models.CodeOf(err))

	_, err = c.Extract(context.Background(), ExtractRequest{Model: "gpt-4o-mini"}, Credentials{"OPENAI_API_KEY": "x"})
	assert.Same(t, provErr, err)
}

func TestResolveCredentials(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": "env-key", "GROQ_API_KEY": "env-groq"}
	session := map[string]string{"OPENAI_API_KEY": "session-key", "GROQ_API_KEY": ""}

	creds := ResolveCredentials(env, session)
	assert.Equal(t, "session-key", creds["OPENAI_API_KEY"])
	assert.Equal(t, "env-groq", creds["GROQ_API_KEY"])
	assert.True(t, creds.Has("GROQ_API_KEY"))
	assert.False(t, creds.Has("GEMINI_API_KEY"))
	assert.Equal(t, "env-key", env["OPENAI_API_KEY"])
}

func TestLookup(t *testing.T) {
	m, err := Lookup("gemini/gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "GEMINI_API_KEY", m.Credential)
	assert.Equal(t, "gemini-1.5-flash", m.Upstream)

	_, err = Lookup("gpt-2")
	assert.Error(t, err)

	ids := ModelIDs()
	assert.Len(t, ids, len(Models))
	assert.IsNonDecreasing(t, ids)
}
