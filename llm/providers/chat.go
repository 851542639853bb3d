// Package providers registers the model servers definitions can be
// generated with: OpenAI-compatible chat completions (openai, ollama) and
// the Anthropic messages API.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/grbba/skosdoc/llm"
)

func init() {
	llm.Register(ChatCompletions{ID: "openai", DefaultURL: "https://api.openai.com/v1", KeyEnv: "OPENAI_API_KEY"})
	llm.Register(ChatCompletions{ID: "ollama", DefaultURL: "http://localhost:11434/v1", KeyEnv: "OPENAI_API_KEY"})
	llm.Register(Anthropic{})
}

// ChatCompletions speaks the OpenAI /chat/completions format, which Ollama,
// vLLM and OpenRouter also serve.
type ChatCompletions struct {
	ID         string
	DefaultURL string
	// KeyEnv names the variable holding the bearer token when the endpoint
	// carries none.
	KeyEnv string
}

// Name implements llm.Provider.
func (c ChatCompletions) Name() string { return c.ID }

// URL returns the completions endpoint under base.
func (c ChatCompletions) URL(base string) string {
	if base == "" {
		base = c.DefaultURL
	}
	base = strings.TrimSuffix(base, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// NewRequest implements llm.Provider.
func (c ChatCompletions) NewRequest(ctx context.Context, ep llm.Endpoint, req llm.Request) (*http.Request, error) {
	httpReq, err := llm.PostJSON(ctx, c.URL(ep.URL), chatRequest{
		Model:       ep.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if key := apiKey(ep.APIKey, c.KeyEnv); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}
	return httpReq, nil
}

// Decode implements llm.Provider with the first choice's message.
func (ChatCompletions) Decode(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message llm.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func apiKey(explicit, env string) string {
	if explicit != "" || env == "" {
		return explicit
	}
	return os.Getenv(env)
}
