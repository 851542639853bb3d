package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/grbba/skosdoc/llm"
)

const (
	anthropicURL     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	// The messages API requires max_tokens; definitions stay well under it.
	anthropicMaxTokens = 256
)

// Anthropic speaks the /v1/messages format.
type Anthropic struct{}

// Name implements llm.Provider.
func (Anthropic) Name() string { return "anthropic" }

// URL returns the messages endpoint under base.
func (Anthropic) URL(base string) string {
	if base == "" {
		base = anthropicURL
	}
	return strings.TrimSuffix(base, "/") + "/v1/messages"
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// NewRequest implements llm.Provider. System messages move to the
// top-level system field.
func (a Anthropic) NewRequest(ctx context.Context, ep llm.Endpoint, req llm.Request) (*http.Request, error) {
	body := messagesRequest{Model: ep.Model, MaxTokens: req.MaxTokens, Temperature: req.Temperature}
	if body.MaxTokens <= 0 {
		body.MaxTokens = anthropicMaxTokens
	}
	var system []string
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		body.Messages = append(body.Messages, m)
	}
	body.System = strings.Join(system, "\n")

	httpReq, err := llm.PostJSON(ctx, a.URL(ep.URL), body)
	if err != nil {
		return nil, err
	}
	if key := apiKey(ep.APIKey, "ANTHROPIC_API_KEY"); key != "" {
		httpReq.Header.Set("x-api-key", key)
	}
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	return httpReq, nil
}

// Decode implements llm.Provider by joining the text blocks.
func (Anthropic) Decode(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
