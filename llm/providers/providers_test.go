package providers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grbba/skosdoc/llm"
)

func lookup(t *testing.T, name string) llm.Provider {
	t.Helper()
	p, ok := llm.Lookup(name)
	require.True(t, ok, name)
	return p
}

func TestProvidersRegistered(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "ollama", "openai"}, llm.Providers())
}

func TestNewRequest_URL(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		baseURL  string
		want     string
	}{
		{"openai default", "openai", "", "https://api.openai.com/v1/chat/completions"},
		{"openai trailing slash", "openai", "https://openrouter.ai/api/v1/", "https://openrouter.ai/api/v1/chat/completions"},
		{"ollama default", "ollama", "", "http://localhost:11434/v1/chat/completions"},
		{"ollama full path", "ollama", "http://gpu:8000/v1/chat/completions", "http://gpu:8000/v1/chat/completions"},
		{"anthropic default", "anthropic", "", "https://api.anthropic.com/v1/messages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := lookup(t, tt.provider).NewRequest(context.Background(),
				llm.Endpoint{URL: tt.baseURL, Model: "m"}, llm.Request{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.URL.String())
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		})
	}
}

func TestNewRequest_Credentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("ANTHROPIC_API_KEY", "")
	ctx := context.Background()

	req, err := lookup(t, "openai").NewRequest(ctx, llm.Endpoint{APIKey: "explicit"}, llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer explicit", req.Header.Get("Authorization"))

	req, err = lookup(t, "ollama").NewRequest(ctx, llm.Endpoint{}, llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-env", req.Header.Get("Authorization"))

	req, err = lookup(t, "anthropic").NewRequest(ctx, llm.Endpoint{}, llm.Request{})
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
}

func decodeBody(t *testing.T, p llm.Provider, req llm.Request, into any) {
	t.Helper()
	httpReq, err := p.NewRequest(context.Background(), llm.Endpoint{Model: "gpt-4o"}, req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(httpReq.Body).Decode(into))
}

func TestChatCompletions_RequestBody(t *testing.T) {
	temp := 0.2
	var got map[string]any
	decodeBody(t, lookup(t, "ollama"), llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: "define Sweet"}},
		Temperature: &temp,
		MaxTokens:   80,
	}, &got)
	assert.Equal(t, "gpt-4o", got["model"])
	assert.Equal(t, 0.2, got["temperature"])
	assert.Equal(t, float64(80), got["max_tokens"])

	got = nil
	decodeBody(t, lookup(t, "openai"), llm.Request{Messages: []llm.Message{{Role: "user", Content: "x"}}}, &got)
	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "max_tokens")
}

func TestChatCompletions_Decode(t *testing.T) {
	p := lookup(t, "openai")
	text, err := p.Decode([]byte(`{
		"choices": [{"message": {"role": "assistant", "content": "A taste."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "A taste.", text)

	_, err = p.Decode([]byte(`{"choices": []}`))
	assert.Error(t, err)
}

func TestAnthropic_SystemMessageHoisted(t *testing.T) {
	var got messagesRequest
	decodeBody(t, Anthropic{}, llm.Request{
		Messages: []llm.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
	}, &got)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, []llm.Message{{Role: "user", Content: "hi"}}, got.Messages)
	assert.Equal(t, anthropicMaxTokens, got.MaxTokens)
}

func TestAnthropic_Decode(t *testing.T) {
	text, err := Anthropic{}.Decode([]byte(`{
		"content": [{"type": "text", "text": "Sweet "}, {"type": "tool_use"}, {"type": "text", "text": "taste."}],
		"stop_reason": "end_turn"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Sweet taste.", text)
}
